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

type firestoreFileRecordRepository struct {
	client *firestore.Client
}

func NewFirestoreFileRecordRepository(client *firestore.Client) repository.FileRecordRepository {
	return &firestoreFileRecordRepository{
		client: client,
	}
}

func (r *firestoreFileRecordRepository) files(dealID string) *firestore.CollectionRef {
	return r.client.Collection("deals").Doc(dealID).Collection("files")
}

func (r *firestoreFileRecordRepository) Create(ctx context.Context, record *entity.FileRecord) error {
	_, err := r.files(record.DealID).Doc(record.ID).Set(ctx, record)
	if err != nil {
		return errors.Internal("Failed to create file record", err)
	}
	return nil
}

func (r *firestoreFileRecordRepository) GetByID(ctx context.Context, dealID, fileID string) (*entity.FileRecord, error) {
	doc, err := r.files(dealID).Doc(fileID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("File", err)
		}
		return nil, errors.Internal("Failed to get file record", err)
	}

	var record entity.FileRecord
	if err := doc.DataTo(&record); err != nil {
		return nil, errors.Internal("Failed to parse file record", err)
	}

	return &record, nil
}

func (r *firestoreFileRecordRepository) ListByDeal(ctx context.Context, dealID string) ([]*entity.FileRecord, error) {
	query := r.files(dealID).OrderBy("uploadedAt", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var records []*entity.FileRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate file records", err)
		}

		var record entity.FileRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, errors.Internal("Failed to parse file record", err)
		}
		records = append(records, &record)
	}

	return records, nil
}
