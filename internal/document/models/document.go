package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a supporting file attached to a professional record. The
// binary payload lives in blob storage under BlobKey; the row only
// carries metadata.
type Document struct {
	ID             uuid.UUID `json:"id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	FileName       string    `json:"file_name"`
	Description    string    `json:"description"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size_bytes"`
	BlobKey        string    `json:"-"`
	UploadedAt     time.Time `json:"uploaded_at"`
}
