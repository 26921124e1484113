package service

import (
	"context"
	"io"
)

// BlobStorageService is the object-storage collaborator: opaque-key writes
// and streaming reads. Implementations live in internal/infrastructure/storage.
type BlobStorageService interface {
	// Write stores data under key with the given content type and returns a
	// retrievable URL for the object.
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// OpenRead opens a streaming read of the object at key. The caller owns
	// the returned reader and must close it.
	OpenRead(ctx context.Context, key string) (io.ReadCloser, error)
	Close() error
}
