package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealvault/internal/domain/entity"
	"dealvault/internal/usecase"
	"dealvault/pkg/errors"
)

type stubDealRepo struct {
	deals map[string]*entity.Deal
}

func (s *stubDealRepo) GetByID(ctx context.Context, id string) (*entity.Deal, error) {
	deal, ok := s.deals[id]
	if !ok {
		return nil, errors.NotFound("Deal", nil)
	}
	return deal, nil
}

func (s *stubDealRepo) ListByParticipant(ctx context.Context, userID string) ([]*entity.Deal, error) {
	var deals []*entity.Deal
	for _, deal := range s.deals {
		if deal.HasParticipant(userID) {
			deals = append(deals, deal)
		}
	}
	return deals, nil
}

type stubFileRepo struct {
	records  map[string]*entity.FileRecord
	getCalls int
}

func (s *stubFileRepo) Create(ctx context.Context, record *entity.FileRecord) error {
	s.records[record.DealID+"/"+record.ID] = record
	return nil
}

func (s *stubFileRepo) GetByID(ctx context.Context, dealID, fileID string) (*entity.FileRecord, error) {
	s.getCalls++
	record, ok := s.records[dealID+"/"+fileID]
	if !ok {
		return nil, errors.NotFound("File", nil)
	}
	return record, nil
}

func (s *stubFileRepo) ListByDeal(ctx context.Context, dealID string) ([]*entity.FileRecord, error) {
	var records []*entity.FileRecord
	for _, record := range s.records {
		if record.DealID == dealID {
			records = append(records, record)
		}
	}
	return records, nil
}

type stubBlobStore struct {
	objects map[string][]byte
	reader  io.ReadCloser // overrides object lookup when set
}

func (s *stubBlobStore) Write(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.objects[key] = data
	return "https://blobs.test/" + key, nil
}

func (s *stubBlobStore) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.reader != nil {
		return s.reader, nil
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubBlobStore) Close() error { return nil }

var pdfPayload = append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 10*1024)...)

func newTestHandler() (*DocumentHandler, *stubFileRepo, *stubBlobStore) {
	dealRepo := &stubDealRepo{deals: map[string]*entity.Deal{
		"deal-1": {ID: "deal-1", Participants: []string{"buyer-1", "seller-1"}},
	}}
	fileRepo := &stubFileRepo{records: make(map[string]*entity.FileRecord)}
	blob := &stubBlobStore{objects: make(map[string][]byte)}
	uc := usecase.NewDocumentUseCase(dealRepo, fileRepo, blob)
	return NewDocumentHandler(uc, 5*1024*1024), fileRepo, blob
}

func multipartUpload(t *testing.T, dealID, filename, contentType string, payload []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if dealID != "" {
		require.NoError(t, writer.WriteField("dealId", dealID))
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestUploadHandler(t *testing.T) {
	h, fileRepo, blob := newTestHandler()

	req := multipartUpload(t, "deal-1", "contract.pdf", "application/pdf", pdfPayload)
	rec := httptest.NewRecorder()
	e := echo.New()
	c := e.NewContext(req, rec)
	c.Set("uid", "buyer-1")

	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "File uploaded successfully", resp["message"])
	fileID, _ := resp["fileId"].(string)
	assert.NotEmpty(t, fileID)
	assert.Contains(t, resp["url"], fileID)

	record := fileRepo.records["deal-1/"+fileID]
	require.NotNil(t, record)
	assert.Equal(t, "contract.pdf", record.Filename)
	assert.Equal(t, pdfPayload, blob.objects[record.StorageKey])
}

func TestUploadHandlerMissingFields(t *testing.T) {
	h, fileRepo, blob := newTestHandler()
	e := echo.New()

	// no dealId field
	req := multipartUpload(t, "", "contract.pdf", "application/pdf", pdfPayload)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", "buyer-1")
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// no file part at all
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("dealId", "deal-1"))
	require.NoError(t, writer.Close())
	req = httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set("uid", "buyer-1")
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// no caller identity
	req = multipartUpload(t, "deal-1", "contract.pdf", "application/pdf", pdfPayload)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, fileRepo.records)
	assert.Empty(t, blob.objects)
}

func TestUploadHandlerSpoofedSignature(t *testing.T) {
	h, fileRepo, blob := newTestHandler()

	exe := append([]byte{0x4D, 0x5A, 0x90, 0x00}, bytes.Repeat([]byte{0}, 64)...)
	req := multipartUpload(t, "deal-1", "photo.jpg", "image/jpeg", exe)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("uid", "buyer-1")

	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fileRepo.records, "no record on rejected upload")
	assert.Empty(t, blob.objects, "no blob on rejected upload")
}

func downloadContext(e *echo.Echo, uid, dealID, fileID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/download/"+dealID+"/"+fileID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/download/:dealId/:fileId")
	c.SetParamNames("dealId", "fileId")
	c.SetParamValues(dealID, fileID)
	if uid != "" {
		c.Set("uid", uid)
	}
	return c, rec
}

func TestDownloadHandler(t *testing.T) {
	h, fileRepo, blob := newTestHandler()
	e := echo.New()

	fileRepo.records["deal-1/file-1"] = &entity.FileRecord{
		ID: "file-1", DealID: "deal-1", Filename: "contract.pdf",
		ContentType: "application/pdf", StorageKey: "deal-1/file-1-contract.pdf",
	}
	blob.objects["deal-1/file-1-contract.pdf"] = pdfPayload

	// repeated downloads return identical headers and content
	for i := 0; i < 2; i++ {
		c, rec := downloadContext(e, "buyer-1", "deal-1", "file-1")
		require.NoError(t, h.Download(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, `attachment; filename="contract.pdf"`, rec.Header().Get(echo.HeaderContentDisposition))
		assert.Equal(t, pdfPayload, rec.Body.Bytes())
	}
}

func TestDownloadHandlerAuthorization(t *testing.T) {
	h, fileRepo, _ := newTestHandler()
	e := echo.New()

	fileRepo.records["deal-1/file-1"] = &entity.FileRecord{
		ID: "file-1", DealID: "deal-1", StorageKey: "deal-1/file-1-x",
	}

	// outsider gets 403 even though the file exists
	c, rec := downloadContext(e, "outsider", "deal-1", "file-1")
	require.NoError(t, h.Download(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// missing deal gets 404 with no file lookup issued
	fileRepo.getCalls = 0
	c, rec = downloadContext(e, "buyer-1", "no-such-deal", "file-1")
	require.NoError(t, h.Download(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, fileRepo.getCalls)

	// missing file gets 404
	c, rec = downloadContext(e, "buyer-1", "deal-1", "no-such-file")
	require.NoError(t, h.Download(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadHandlerMidStreamFailure(t *testing.T) {
	h, fileRepo, blob := newTestHandler()
	e := echo.New()

	fileRepo.records["deal-1/file-1"] = &entity.FileRecord{
		ID: "file-1", DealID: "deal-1", Filename: "contract.pdf",
		ContentType: "application/pdf", StorageKey: "deal-1/file-1-contract.pdf",
	}
	blob.reader = io.NopCloser(&chunkedReader{
		chunks: [][]byte{[]byte("first-chunk")},
		final:  fmt.Errorf("upstream read reset"),
	})

	c, rec := downloadContext(e, "buyer-1", "deal-1", "file-1")

	defer func() {
		r := recover()
		require.NotNil(t, r, "mid-stream failure must abort the connection")
		assert.Equal(t, http.ErrAbortHandler, r)

		// the flushed chunk stands alone; no JSON error body follows
		assert.Equal(t, "first-chunk", rec.Body.String())
	}()

	_ = h.Download(c)
	t.Fatal("Download should have panicked")
}

func TestMyDocumentsHandler(t *testing.T) {
	h, fileRepo, _ := newTestHandler()
	e := echo.New()

	// empty result is a valid 200 with a JSON array
	req := httptest.NewRequest(http.MethodGet, "/my-deals", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", "nobody")
	require.NoError(t, h.MyDocuments(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	fileRepo.records["deal-1/file-1"] = &entity.FileRecord{
		ID: "file-1", DealID: "deal-1", Filename: "a.pdf",
		ContentType: "application/pdf", Size: 10,
	}

	req = httptest.NewRequest(http.MethodGet, "/my-deals", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set("uid", "buyer-1")
	require.NoError(t, h.MyDocuments(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "deal-1", entries[0]["dealId"])
	assert.Equal(t, "file-1", entries[0]["fileId"])
	assert.Equal(t, "/download/deal-1/file-1", entries[0]["downloadPath"])
}
