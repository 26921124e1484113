package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"dealvault/pkg/logger"
)

type streamState int

const (
	streamNotStarted streamState = iota
	streamHeadersSent
	streamStreaming
	streamDone
	streamAborted
)

// downloadStream pipes blob bytes to the response and makes the two-phase
// failure contract explicit. Until the first chunk is written the response
// is uncommitted and a structured error body can still go out; after that
// the status line is on the wire and the only safe recourse on failure is
// to tear down the connection, so a truncated body never masquerades as a
// complete download.
type downloadStream struct {
	response *echo.Response
	state    streamState
}

func newDownloadStream(response *echo.Response) *downloadStream {
	return &downloadStream{
		response: response,
		state:    streamNotStarted,
	}
}

// SendHeaders stages the download headers. Nothing is committed until the
// first body write.
func (s *downloadStream) SendHeaders(contentType, filename string) {
	header := s.response.Header()
	header.Set(echo.HeaderContentType, contentType)
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	s.state = streamHeadersSent
}

// ClearHeaders undoes SendHeaders so an error body can be sent clean. Only
// valid while the response is still uncommitted.
func (s *downloadStream) ClearHeaders() {
	s.response.Header().Del(echo.HeaderContentType)
	s.response.Header().Del(echo.HeaderContentDisposition)
	s.state = streamNotStarted
}

// Pipe copies reader to the response in fixed-size chunks, flushing as it
// goes. An error before anything was written leaves the response uncommitted
// and is returned to the caller; an error after a partial write aborts the
// connection and never returns.
func (s *downloadStream) Pipe(reader io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			if _, writeErr := s.response.Write(buf[:n]); writeErr != nil {
				s.abort(writeErr)
			}
			s.state = streamStreaming
			s.response.Flush()
		}
		if readErr == io.EOF {
			s.state = streamDone
			return nil
		}
		if readErr != nil {
			if s.state == streamStreaming {
				s.abort(readErr)
			}
			return readErr
		}
	}
}

// abort logs the cause and panics with http.ErrAbortHandler, which makes
// net/http drop the connection. Echo's Recover middleware re-panics on this
// sentinel, so no error body is appended to the partial download.
func (s *downloadStream) abort(cause error) {
	s.state = streamAborted
	logger.Error("Aborting download stream after partial write: %v", cause)
	panic(http.ErrAbortHandler)
}
