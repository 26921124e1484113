package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dealvault/internal/domain/entity"
	"dealvault/internal/domain/repository"
	"dealvault/pkg/errors"
)

type firestoreDealRepository struct {
	client *firestore.Client
}

func NewFirestoreDealRepository(client *firestore.Client) repository.DealRepository {
	return &firestoreDealRepository{
		client: client,
	}
}

func (r *firestoreDealRepository) GetByID(ctx context.Context, id string) (*entity.Deal, error) {
	doc, err := r.client.Collection("deals").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Deal", err)
		}
		return nil, errors.Internal("Failed to get deal", err)
	}

	var deal entity.Deal
	if err := doc.DataTo(&deal); err != nil {
		return nil, errors.Internal("Failed to parse deal", err)
	}
	deal.ID = doc.Ref.ID

	return &deal, nil
}

func (r *firestoreDealRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Deal, error) {
	query := r.client.Collection("deals").Where("participants", "array-contains", userID)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var deals []*entity.Deal
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate deals", err)
		}

		var deal entity.Deal
		if err := doc.DataTo(&deal); err != nil {
			return nil, errors.Internal("Failed to parse deal", err)
		}
		deal.ID = doc.Ref.ID
		deals = append(deals, &deal)
	}

	return deals, nil
}
