// Package service keeps per-article notes for Pro accounts. Reading and
// deleting stay open to any signed-in account so a lapsed subscription
// does not strand existing notes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"dailybit/internal/notes/models"
	profilemodels "dailybit/internal/profile/models"
	id "dailybit/pkg/domain"
	dErrors "dailybit/pkg/domain-errors"
	"dailybit/pkg/platform/sentinel"
	"dailybit/pkg/requestcontext"
)

// Store persists notes keyed by account and article.
type Store interface {
	// Get returns sentinel.ErrNotFound when the account has no note for
	// the article.
	Get(ctx context.Context, accountID id.AccountID, articleID string) (*models.Note, error)
	// List returns at most limit notes, most recently updated first.
	List(ctx context.Context, accountID id.AccountID, limit int) ([]models.Note, error)
	// Upsert writes both text fields and returns the stored row. CreatedAt
	// is kept from an existing row.
	Upsert(ctx context.Context, note models.Note) (*models.Note, error)
	Delete(ctx context.Context, accountID id.AccountID, articleID string) error
}

// ProfileReader reads the tier of an account.
type ProfileReader interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*profilemodels.Profile, error)
}

// Service applies tier rules on top of the notes store.
type Service struct {
	store    Store
	profiles ProfileReader
	logger   *slog.Logger
}

// New constructs the notes service.
func New(store Store, profiles ProfileReader, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("notes store is required")
	}
	if profiles == nil {
		return nil, errors.New("profile reader is required")
	}
	return &Service{store: store, profiles: profiles, logger: logger}, nil
}

// Get returns the note for articleID, or nil when there is none.
func (s *Service) Get(ctx context.Context, accountID id.AccountID, articleID string) (*models.Note, error) {
	note, err := s.store.Get(ctx, accountID, articleID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load note")
	}
	return note, nil
}

// List returns the account's most recently updated notes.
func (s *Service) List(ctx context.Context, accountID id.AccountID) ([]models.Note, error) {
	notes, err := s.store.List(ctx, accountID, models.MaxListed)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notes")
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, nil
}

// Save creates or replaces the note for articleID. Only Pro accounts may
// write.
func (s *Service) Save(ctx context.Context, accountID id.AccountID, articleID string, customSummary, note *string) (*models.Note, error) {
	articleID = strings.TrimSpace(articleID)
	if articleID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "article_id is required")
	}
	if err := s.RequirePro(ctx, accountID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	saved, err := s.store.Upsert(ctx, models.Note{
		AccountID:     accountID,
		ArticleID:     articleID,
		CustomSummary: customSummary,
		Note:          note,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save note")
	}
	return saved, nil
}

// Delete removes the note for articleID. Deleting a missing note succeeds.
func (s *Service) Delete(ctx context.Context, accountID id.AccountID, articleID string) error {
	articleID = strings.TrimSpace(articleID)
	if articleID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "article_id is required")
	}
	if err := s.store.Delete(ctx, accountID, articleID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete note")
	}
	return nil
}

// RequirePro returns a forbidden error unless the account is on the Pro
// tier. A missing profile counts as free.
func (s *Service) RequirePro(ctx context.Context, accountID id.AccountID) error {
	profile, err := s.profiles.FindByID(ctx, accountID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	if !profile.IsPro() {
		return dErrors.New(dErrors.CodeForbidden, profilemodels.MsgProRequired)
	}
	return nil
}
