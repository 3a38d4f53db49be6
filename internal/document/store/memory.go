package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"credencia/internal/document/models"
	"credencia/pkg/sentinel"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*models.Document)}
}

func (s *MemoryStore) Create(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[d.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *d
	s.records[d.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) ListByProfessional(_ context.Context, professionalID uuid.UUID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.records {
		if d.ProfessionalID != professionalID {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, id)
	return nil
}
