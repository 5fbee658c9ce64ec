package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"dailybit/internal/notes/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/sentinel"
)

// InMemoryStore keeps notes in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	notes map[id.AccountID]map[string]models.Note
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notes: make(map[id.AccountID]map[string]models.Note)}
}

func (s *InMemoryStore) Get(_ context.Context, accountID id.AccountID, articleID string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[accountID][articleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &n, nil
}

func (s *InMemoryStore) List(_ context.Context, accountID id.AccountID, limit int) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Note, 0, len(s.notes[accountID]))
	for _, n := range s.notes[accountID] {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b models.Note) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ArticleID, b.ArticleID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, note models.Note) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byArticle, ok := s.notes[note.AccountID]
	if !ok {
		byArticle = make(map[string]models.Note)
		s.notes[note.AccountID] = byArticle
	}
	if old, ok := byArticle[note.ArticleID]; ok {
		note.CreatedAt = old.CreatedAt
	}
	byArticle[note.ArticleID] = note
	return &note, nil
}

func (s *InMemoryStore) Delete(_ context.Context, accountID id.AccountID, articleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes[accountID], articleID)
	return nil
}
