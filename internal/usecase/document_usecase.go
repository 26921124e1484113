package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"dealvault/internal/domain/entity"
	"dealvault/internal/domain/repository"
	"dealvault/internal/domain/service"
	"dealvault/pkg/errors"
	"dealvault/pkg/logger"
	"dealvault/pkg/sniff"
)

type DocumentUseCase struct {
	dealRepo repository.DealRepository
	fileRepo repository.FileRecordRepository
	blob     service.BlobStorageService
}

func NewDocumentUseCase(
	dealRepo repository.DealRepository,
	fileRepo repository.FileRecordRepository,
	blob service.BlobStorageService,
) *DocumentUseCase {
	return &DocumentUseCase{
		dealRepo: dealRepo,
		fileRepo: fileRepo,
		blob:     blob,
	}
}

// AuthorizeDealAccess is the gate in front of every document operation:
// the deal must exist and the caller must be one of its participants.
func (uc *DocumentUseCase) AuthorizeDealAccess(ctx context.Context, userID, dealID string) (*entity.Deal, error) {
	deal, err := uc.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}

	if !deal.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this deal", nil)
	}

	return deal, nil
}

type UploadDocumentInput struct {
	DealID      string
	Filename    string
	ContentType string
	Data        []byte
}

func (uc *DocumentUseCase) UploadDocument(ctx context.Context, userID string, input UploadDocumentInput) (*entity.FileRecord, error) {
	if userID == "" {
		return nil, errors.BadRequest("Caller identity is required", nil)
	}
	if input.DealID == "" {
		return nil, errors.BadRequest("dealId is required", nil)
	}
	if len(input.Data) == 0 {
		return nil, errors.BadRequest("file is required", nil)
	}

	detected := sniff.Detect(input.Data)
	if !sniff.Matches(detected, input.ContentType) {
		logger.Warn("Rejected upload: declared type %q, detected %q, filename %s",
			input.ContentType, detected, input.Filename)
		return nil, errors.BadRequest("File content does not match an accepted document type", nil)
	}

	if _, err := uc.AuthorizeDealAccess(ctx, userID, input.DealID); err != nil {
		return nil, err
	}

	fileID := uuid.New().String()
	// Key embeds the record id so concurrent uploads of same-named files
	// never collide.
	storageKey := fmt.Sprintf("%s/%s-%s", input.DealID, fileID, input.Filename)

	url, err := uc.blob.Write(ctx, storageKey, input.Data, input.ContentType)
	if err != nil {
		logger.Error("Blob write failed for key %s: %v", storageKey, err)
		return nil, errors.Internal("Failed to store file", err)
	}

	record := &entity.FileRecord{
		ID:          fileID,
		DealID:      input.DealID,
		Filename:    input.Filename,
		StorageKey:  storageKey,
		ContentType: input.ContentType,
		Size:        int64(len(input.Data)),
		UploadedBy:  userID,
		UploadedAt:  time.Now(),
		URL:         url,
	}

	if err := uc.fileRepo.Create(ctx, record); err != nil {
		// The blob is already written; without a compensating delete the
		// object at storageKey is orphaned. Log the key for reconciliation.
		logger.Error("File record persist failed, orphaned blob at key %s: %v", storageKey, err)
		return nil, err
	}

	logger.Info("Document %s uploaded to deal %s by %s (%d bytes)",
		fileID, input.DealID, userID, record.Size)
	return record, nil
}

// GetDocument resolves a file record after running the authorization gate.
// The deal lookup happens first; a missing deal never reaches the file query.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, userID, dealID, fileID string) (*entity.FileRecord, error) {
	if _, err := uc.AuthorizeDealAccess(ctx, userID, dealID); err != nil {
		return nil, err
	}

	return uc.fileRepo.GetByID(ctx, dealID, fileID)
}

// OpenDocumentStream opens a streaming read of the record's blob. The caller
// owns the reader.
func (uc *DocumentUseCase) OpenDocumentStream(ctx context.Context, record *entity.FileRecord) (io.ReadCloser, error) {
	reader, err := uc.blob.OpenRead(ctx, record.StorageKey)
	if err != nil {
		logger.Error("Failed to open blob stream for key %s: %v", record.StorageKey, err)
		return nil, errors.Internal("Failed to retrieve file", err)
	}
	return reader, nil
}

type DocumentEntry struct {
	DealID       string `json:"dealId"`
	FileID       string `json:"fileId"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
	DownloadPath string `json:"downloadPath"`
}

// ListMyDocuments flattens every file of every deal the caller participates
// in. One deal query plus one file query per deal; fine at small deal counts,
// and isolated behind the repository interfaces so a denormalized index can
// replace it later. Any sub-query failure aborts the whole call.
func (uc *DocumentUseCase) ListMyDocuments(ctx context.Context, userID string) ([]DocumentEntry, error) {
	deals, err := uc.dealRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]DocumentEntry, 0)
	for _, deal := range deals {
		records, err := uc.fileRepo.ListByDeal(ctx, deal.ID)
		if err != nil {
			return nil, err
		}

		for _, record := range records {
			entries = append(entries, DocumentEntry{
				DealID:       deal.ID,
				FileID:       record.ID,
				Filename:     record.Filename,
				ContentType:  record.ContentType,
				Size:         record.Size,
				UploadedAt:   record.UploadedAt.UTC().Format(time.RFC3339),
				DownloadPath: fmt.Sprintf("/download/%s/%s", deal.ID, record.ID),
			})
		}
	}

	return entries, nil
}
