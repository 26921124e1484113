package repository

import (
	"context"

	"dealvault/internal/domain/entity"
)

// FileRecordRepository persists document metadata under a deal's file
// sub-collection. The listing path is a per-deal fan-out by design; a
// denormalized per-caller index could replace ListByDeal without touching
// callers of this interface.
type FileRecordRepository interface {
	Create(ctx context.Context, record *entity.FileRecord) error
	GetByID(ctx context.Context, dealID, fileID string) (*entity.FileRecord, error)
	ListByDeal(ctx context.Context, dealID string) ([]*entity.FileRecord, error)
}
