package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"credencia/internal/professional/models"
	"credencia/pkg/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and databaseless runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.Professional
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*models.Professional)}
}

func (s *MemoryStore) Create(_ context.Context, p *models.Professional) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Professional, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*models.Professional, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Professional
	for _, p := range s.records {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !matches(p, filter.Search) {
			continue
		}
		out = append(out, clone(p))
	}

	// Default ordering is newest submissions first.
	sort.Slice(out, func(i, j int) bool {
		var less bool
		if filter.OrderBy == "name" {
			less = out[i].Name < out[j].Name
		} else {
			less = out[i].SubmissionDate.Before(out[j].SubmissionDate)
		}
		if filter.Ascending {
			return less
		}
		return !less
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, p *models.Professional) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) ExistsRecentTaxID(_ context.Context, taxID string, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.records {
		if p.TaxID() == taxID && !p.SubmissionDate.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) CountSince(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.records {
		if !p.SubmissionDate.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.Status]int)
	for _, p := range s.records {
		out[p.Status]++
	}
	return out, nil
}

func (s *MemoryStore) MonthlyCounts(_ context.Context, from time.Time) ([]MonthCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := make(map[time.Time]int)
	for _, p := range s.records {
		if p.SubmissionDate.Before(from) {
			continue
		}
		month := time.Date(p.SubmissionDate.Year(), p.SubmissionDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[month]++
	}

	out := make([]MonthCount, 0, len(byMonth))
	for month, count := range byMonth {
		out = append(out, MonthCount{Month: month, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (s *MemoryStore) AvgAnalysisDays(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total time.Duration
	var n int
	for _, p := range s.records {
		if !p.Status.Final() {
			continue
		}
		if end := p.ReviewedAt(); end != nil {
			total += end.Sub(p.SubmissionDate)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total.Hours() / 24 / float64(n), nil
}

func matches(p *models.Professional, search string) bool {
	needle := strings.ToLower(search)
	haystacks := []string{p.Name, p.Email, p.TaxID()}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func clone(p *models.Professional) *models.Professional {
	cp := *p
	if p.Individual != nil {
		ind := *p.Individual
		cp.Individual = &ind
	}
	if p.Corporate != nil {
		corp := *p.Corporate
		cp.Corporate = &corp
	}
	return &cp
}
