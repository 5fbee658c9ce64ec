package memory

import (
	"context"
	"sync"
	"time"

	"dailybit/internal/profile/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in process memory, indexed by ID and token.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.AccountID]*models.Profile
	byToken  map[string]id.AccountID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[id.AccountID]*models.Profile),
		byToken:  make(map[string]id.AccountID),
	}
}

// Save inserts or replaces a profile.
func (s *InMemoryStore) Save(_ context.Context, p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, taken := s.byToken[p.APIToken]; p.APIToken != "" && taken && owner != p.ID {
		return sentinel.ErrConflict
	}
	if old, ok := s.profiles[p.ID]; ok && old.APIToken != "" {
		delete(s.byToken, old.APIToken)
	}
	if p.APIToken != "" {
		s.byToken[p.APIToken] = p.ID
	}
	if p.Tier == "" {
		p.Tier = models.TierFree
	}
	s.profiles[p.ID] = &p
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) FindAccountByToken(_ context.Context, token string) (id.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byToken[token]
	if !ok {
		return id.AccountID{}, sentinel.ErrNotFound
	}
	return accountID, nil
}

func (s *InMemoryStore) UpdateSubscription(_ context.Context, accountID id.AccountID, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Tier = sub.Tier
	p.SubscriptionID = sub.ID
	p.SubscriptionStatus = sub.Status
	p.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) CustomSkill(_ context.Context, accountID id.AccountID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return p.CustomSkillMD, nil
}

func (s *InMemoryStore) SetCustomSkill(_ context.Context, accountID id.AccountID, md string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.CustomSkillMD = md
	p.UpdatedAt = time.Now()
	return nil
}
