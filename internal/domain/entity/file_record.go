package entity

import (
	"time"
)

// FileRecord describes one uploaded document, scoped under a deal's file
// sub-collection. Records are append-only: no update or delete path exists.
type FileRecord struct {
	ID          string    `json:"id" firestore:"id"`
	DealID      string    `json:"deal_id" firestore:"dealId"`
	Filename    string    `json:"filename" firestore:"filename"`
	StorageKey  string    `json:"storage_key" firestore:"storageKey"`
	ContentType string    `json:"content_type" firestore:"contentType"`
	Size        int64     `json:"size" firestore:"size"`
	UploadedBy  string    `json:"uploaded_by" firestore:"uploadedBy"`
	UploadedAt  time.Time `json:"uploaded_at" firestore:"uploadedAt"`
	URL         string    `json:"url" firestore:"url"`
}
