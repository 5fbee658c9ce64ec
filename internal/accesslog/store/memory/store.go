package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"dailybit/internal/accesslog/models"
)

// InMemoryStore keeps access log records in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []models.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

func (s *InMemoryStore) Append(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// All returns a copy of every stored record in insertion order.
func (s *InMemoryStore) All() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

func (s *InMemoryStore) CountSince(_ context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.records {
		if !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) CountByAgent(_ context.Context, since time.Time) ([]models.AgentCount, error) {
	counts := s.countBy(since, func(r models.Record) string {
		if r.AgentName == nil {
			return models.UnknownAgent
		}
		return *r.AgentName
	})
	out := make([]models.AgentCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.AgentCount{AgentName: name, Count: n})
	}
	slices.SortFunc(out, func(a, b models.AgentCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.AgentName, b.AgentName))
	})
	return out, nil
}

func (s *InMemoryStore) CountByEndpoint(_ context.Context, since time.Time) ([]models.EndpointCount, error) {
	counts := s.countBy(since, func(r models.Record) string { return r.Endpoint })
	out := make([]models.EndpointCount, 0, len(counts))
	for endpoint, n := range counts {
		out = append(out, models.EndpointCount{Endpoint: endpoint, Count: n})
	}
	slices.SortFunc(out, func(a, b models.EndpointCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Endpoint, b.Endpoint))
	})
	return out, nil
}

// ListRecent returns up to limit records, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]models.Record, error) {
	all := s.All()
	slices.SortStableFunc(all, func(a, b models.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *InMemoryStore) countBy(since time.Time, key func(models.Record) string) map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, r := range s.records {
		if r.CreatedAt.Before(since) {
			continue
		}
		counts[key(r)]++
	}
	return counts
}
