package repository

import (
	"context"

	"dealvault/internal/domain/entity"
)

// DealRepository reads deal records owned by the external escrow service.
type DealRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Deal, error)
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Deal, error)
}
