package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"dealvault/internal/usecase"
	"dealvault/pkg/errors"
	"dealvault/pkg/logger"
	"dealvault/pkg/response"
)

type DocumentHandler struct {
	documentUseCase *usecase.DocumentUseCase
	maxFileSize     int64
}

func NewDocumentHandler(documentUseCase *usecase.DocumentUseCase, maxFileSize int64) *DocumentHandler {
	return &DocumentHandler{
		documentUseCase: documentUseCase,
		maxFileSize:     maxFileSize,
	}
}

func getUserIDFromContext(c echo.Context) string {
	if uid, ok := c.Get("uid").(string); ok {
		return uid
	}
	return ""
}

func (h *DocumentHandler) Upload(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	dealID := c.FormValue("dealId")
	if dealID == "" {
		return response.Error(c, errors.BadRequest("dealId is required", nil))
	}

	if file.Size > h.maxFileSize {
		logger.Warn("Rejected oversized upload: %d bytes (max %d)", file.Size, h.maxFileSize)
		return response.Error(c, errors.BadRequest("File size exceeds maximum allowed", nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	// Upload payloads are buffered in full before the blob write.
	data, err := io.ReadAll(src)
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}

	record, err := h.documentUseCase.UploadDocument(c.Request().Context(), userID, usecase.UploadDocumentInput{
		DealID:      dealID,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "File uploaded successfully",
		"fileId":  record.ID,
		"url":     record.URL,
	})
}

func (h *DocumentHandler) Download(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	dealID := c.Param("dealId")
	fileID := c.Param("fileId")

	ctx := c.Request().Context()

	record, err := h.documentUseCase.GetDocument(ctx, userID, dealID, fileID)
	if err != nil {
		return response.Error(c, err)
	}

	// Headers are staged before the blob stream is opened; they commit with
	// the first written chunk.
	stream := newDownloadStream(c.Response())
	stream.SendHeaders(record.ContentType, record.Filename)

	reader, err := h.documentUseCase.OpenDocumentStream(ctx, record)
	if err != nil {
		stream.ClearHeaders()
		return response.Error(c, err)
	}
	defer reader.Close()

	if err := stream.Pipe(reader); err != nil {
		// Pipe only returns an error while the response is uncommitted.
		logger.Error("Download stream failed before first byte for file %s: %v", fileID, err)
		stream.ClearHeaders()
		return response.Error(c, errors.Internal("Failed to retrieve file", err))
	}

	return nil
}

func (h *DocumentHandler) MyDocuments(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	entries, err := h.documentUseCase.ListMyDocuments(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return c.JSON(http.StatusOK, entries)
}
