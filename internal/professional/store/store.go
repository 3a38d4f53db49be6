package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"credencia/internal/professional/models"
)

// Filter narrows and orders the admin list view. The same filter feeds the
// Excel export so the spreadsheet always matches what the reviewer sees.
type Filter struct {
	Status models.Status
	// Search matches name, tax ID and email, case-insensitively.
	Search string
	// OrderBy is "submission_date" (default) or "name".
	OrderBy   string
	Ascending bool
}

// MonthCount is one point of the dashboard's monthly series.
type MonthCount struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// Store persists professionals. Memory and postgres implementations are kept
// behaviorally identical; unit tests run against memory, integration tests
// against postgres.
type Store interface {
	Create(ctx context.Context, p *models.Professional) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Professional, error)
	List(ctx context.Context, filter Filter) ([]*models.Professional, error)
	Update(ctx context.Context, p *models.Professional) error

	// ExistsRecentTaxID reports whether any registration with the given tax ID
	// was submitted at or after since. Backs the 90-day resubmission rule.
	ExistsRecentTaxID(ctx context.Context, taxID string, since time.Time) (bool, error)

	// Dashboard aggregates.
	CountAll(ctx context.Context) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	MonthlyCounts(ctx context.Context, from time.Time) ([]MonthCount, error)
	// AvgAnalysisDays averages reviewed_at - submission_date over finalized
	// records, in days. Zero when nothing is finalized yet.
	AvgAnalysisDays(ctx context.Context) (float64, error)
}
