package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps audit entries in memory. Used by unit tests and by local
// runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) ListByTarget(_ context.Context, targetModel, targetID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.TargetModel == targetModel && e.TargetID == targetID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

func (s *MemoryStore) CountDistinctTargetsBetween(_ context.Context, from, to time.Time, actions []Action) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[Action]bool, len(actions))
	for _, a := range actions {
		wanted[a] = true
	}

	targets := make(map[string]bool)
	for _, e := range s.entries {
		if !wanted[e.Action] {
			continue
		}
		if e.OccurredAt.Before(from) || !e.OccurredAt.Before(to) {
			continue
		}
		targets[e.TargetModel+"/"+e.TargetID] = true
	}
	return len(targets), nil
}
