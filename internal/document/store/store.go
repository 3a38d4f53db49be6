// Package store persists document metadata. Payload bytes are handled by
// the blob package.
package store

import (
	"context"

	"github.com/google/uuid"

	"credencia/internal/document/models"
)

type Store interface {
	Create(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
