package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"dailybit/internal/feeds/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/sentinel"
)

// InMemoryStore keeps feed preferences in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	custom map[id.AccountID][]models.CustomFeed
	hidden map[id.AccountID]map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		custom: make(map[id.AccountID][]models.CustomFeed),
		hidden: make(map[id.AccountID]map[string]struct{}),
	}
}

func (s *InMemoryStore) HiddenDefaults(_ context.Context, accountID id.AccountID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	urls := make([]string, 0, len(s.hidden[accountID]))
	for u := range s.hidden[accountID] {
		urls = append(urls, u)
	}
	slices.Sort(urls)
	return urls, nil
}

func (s *InMemoryStore) ListCustom(_ context.Context, accountID id.AccountID) ([]models.CustomFeed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.custom[accountID])
	slices.SortStableFunc(out, func(a, b models.CustomFeed) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out, nil
}

func (s *InMemoryStore) CountCustom(_ context.Context, accountID id.AccountID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.custom[accountID]), nil
}

func (s *InMemoryStore) AddCustom(_ context.Context, feed models.CustomFeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.custom[feed.AccountID], func(f models.CustomFeed) bool {
		return f.FeedURL == feed.FeedURL
	}) {
		return sentinel.ErrConflict
	}
	s.custom[feed.AccountID] = append(s.custom[feed.AccountID], feed)
	return nil
}

func (s *InMemoryStore) DeleteCustom(_ context.Context, accountID id.AccountID, feedID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom[accountID] = slices.DeleteFunc(s.custom[accountID], func(f models.CustomFeed) bool {
		return f.ID == feedID
	})
	return nil
}

func (s *InMemoryStore) Hide(_ context.Context, accountID id.AccountID, feedURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hidden[accountID] == nil {
		s.hidden[accountID] = make(map[string]struct{})
	}
	s.hidden[accountID][feedURL] = struct{}{}
	return nil
}

func (s *InMemoryStore) Unhide(_ context.Context, accountID id.AccountID, feedURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hidden[accountID], feedURL)
	return nil
}
