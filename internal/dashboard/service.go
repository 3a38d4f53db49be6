// Package dashboard aggregates the back office overview numbers.
package dashboard

import (
	"context"
	"math"
	"time"

	"credencia/internal/audit"
	"credencia/internal/professional/models"
	"credencia/internal/professional/store"
	"credencia/pkg/domainerrors"
	"credencia/pkg/requestcontext"
)

// Stats is the overview payload.
type Stats struct {
	Total             int           `json:"total_registrations"`
	Last30Days        int           `json:"last_30_days"`
	Last60Days        int           `json:"last_60_days"`
	Last90Days        int           `json:"last_90_days"`
	StatusCounts      []StatusCount `json:"status_counts"`
	YearlyVariation   []MonthVolume `json:"yearly_variation"`
	AnalyzedThisMonth int           `json:"analyzed_this_month"`
	AvgAnalysisDays   float64       `json:"avg_analysis_time_days"`
}

// StatusCount is one histogram bucket.
type StatusCount struct {
	Status models.Status `json:"status"`
	Count  int           `json:"count"`
}

// MonthVolume is one point of the 12-month submission series.
type MonthVolume struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// ProfessionalStats is the professional store surface the dashboard reads.
type ProfessionalStats interface {
	CountAll(ctx context.Context) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	MonthlyCounts(ctx context.Context, from time.Time) ([]store.MonthCount, error)
	AvgAnalysisDays(ctx context.Context) (float64, error)
}

// AuditStats counts distinct reviewed targets.
type AuditStats interface {
	CountDistinctTargetsBetween(ctx context.Context, from, to time.Time, actions []audit.Action) (int, error)
}

type Service struct {
	professionals ProfessionalStats
	auditLog      AuditStats
}

func NewService(professionals ProfessionalStats, auditLog AuditStats) *Service {
	return &Service{professionals: professionals, auditLog: auditLog}
}

// Overview computes every dashboard number relative to the request time.
func (s *Service) Overview(ctx context.Context) (*Stats, error) {
	now := requestcontext.Now(ctx)
	stats := &Stats{}

	var err error
	if stats.Total, err = s.professionals.CountAll(ctx); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count registrations")
	}
	if stats.Last30Days, err = s.professionals.CountSince(ctx, now.AddDate(0, 0, -30)); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count recent registrations")
	}
	if stats.Last60Days, err = s.professionals.CountSince(ctx, now.AddDate(0, 0, -60)); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count recent registrations")
	}
	if stats.Last90Days, err = s.professionals.CountSince(ctx, now.AddDate(0, 0, -90)); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count recent registrations")
	}

	byStatus, err := s.professionals.CountByStatus(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count by status")
	}
	for _, status := range []models.Status{
		models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusAdjustmentRequested,
	} {
		if count, ok := byStatus[status]; ok {
			stats.StatusCounts = append(stats.StatusCounts, StatusCount{Status: status, Count: count})
		}
	}

	months, err := s.professionals.MonthlyCounts(ctx, now.AddDate(0, 0, -365))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load monthly volume")
	}
	for _, m := range months {
		stats.YearlyVariation = append(stats.YearlyVariation, MonthVolume{Month: m.Month, Count: m.Count})
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	stats.AnalyzedThisMonth, err = s.auditLog.CountDistinctTargetsBetween(ctx, monthStart, monthStart.AddDate(0, 1, 0),
		[]audit.Action{audit.ActionStatusChange, audit.ActionUpdate})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count analyzed records")
	}

	avg, err := s.professionals.AvgAnalysisDays(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to compute analysis time")
	}
	stats.AvgAnalysisDays = math.Round(avg*10) / 10

	return stats, nil
}
