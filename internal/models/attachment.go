package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a file stored in object storage and linked to a project.
// SizeBytes is what storage usage accounting is derived from.
type Attachment struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ProjectID   uuid.UUID `json:"project_id" db:"project_id"`
	UploadedBy  uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	FileName    string    `json:"file_name" db:"file_name"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
