// Package service computes an account's effective feed list: the preset
// feeds it has not hidden followed by the feeds it added.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	contentmodels "dailybit/internal/content/models"
	"dailybit/internal/feeds/models"
	id "dailybit/pkg/domain"
	dErrors "dailybit/pkg/domain-errors"
	"dailybit/pkg/platform/sentinel"
	"dailybit/pkg/requestcontext"
)

// Store persists custom feeds and hidden presets per account.
type Store interface {
	HiddenDefaults(ctx context.Context, accountID id.AccountID) ([]string, error)
	// ListCustom returns custom feeds newest first.
	ListCustom(ctx context.Context, accountID id.AccountID) ([]models.CustomFeed, error)
	CountCustom(ctx context.Context, accountID id.AccountID) (int, error)
	// AddCustom returns sentinel.ErrConflict when the URL is already present.
	AddCustom(ctx context.Context, feed models.CustomFeed) error
	DeleteCustom(ctx context.Context, accountID id.AccountID, feedID uuid.UUID) error
	Hide(ctx context.Context, accountID id.AccountID, feedURL string) error
	Unhide(ctx context.Context, accountID id.AccountID, feedURL string) error
}

// PresetSource supplies the preset feed list.
type PresetSource interface {
	Feeds() (*contentmodels.Feeds, error)
}

// Service merges preset and custom feeds for an account.
type Service struct {
	store   Store
	presets PresetSource
	logger  *slog.Logger
}

// New constructs the feed service. store and presets are required.
func New(store Store, presets PresetSource, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("feed store is required")
	}
	if presets == nil {
		return nil, errors.New("preset source is required")
	}
	return &Service{store: store, presets: presets, logger: logger}, nil
}

// List returns visible presets followed by custom feeds.
func (s *Service) List(ctx context.Context, accountID id.AccountID) ([]models.FeedItem, error) {
	var (
		hidden []string
		custom []models.CustomFeed
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hidden, err = s.store.HiddenDefaults(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		custom, err = s.store.ListCustom(gctx, accountID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load feeds")
	}

	hiddenSet := make(map[string]struct{}, len(hidden))
	for _, u := range hidden {
		hiddenSet[u] = struct{}{}
	}
	items := make([]models.FeedItem, 0, len(custom))
	for _, f := range s.presetFeeds(ctx) {
		if _, ok := hiddenSet[f.XMLURL]; ok {
			continue
		}
		items = append(items, presetItem(f))
	}
	for _, f := range custom {
		items = append(items, f.Item())
	}
	return items, nil
}

// Add subscribes the account to feedURL. A preset URL is unhidden instead of
// being stored as a custom feed.
func (s *Service) Add(ctx context.Context, accountID id.AccountID, feedURL, feedTitle string) (*models.FeedItem, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "feed_url is required")
	}

	for _, f := range s.presetFeeds(ctx) {
		if f.XMLURL != feedURL {
			continue
		}
		if err := s.store.Unhide(ctx, accountID, feedURL); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore feed")
		}
		item := presetItem(f)
		return &item, nil
	}

	count, err := s.store.CountCustom(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count feeds")
	}
	if count >= models.MaxCustomFeeds {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("最多添加 %d 个自定义源", models.MaxCustomFeeds))
	}

	feed := models.CustomFeed{
		ID:        uuid.New(),
		AccountID: accountID,
		FeedURL:   feedURL,
		CreatedAt: requestcontext.Now(ctx),
	}
	if feedTitle = strings.TrimSpace(feedTitle); feedTitle != "" {
		feed.FeedTitle = &feedTitle
	}
	if err := s.store.AddCustom(ctx, feed); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "此 RSS 源已存在")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add feed")
	}
	item := feed.Item()
	return &item, nil
}

// Remove hides a preset or deletes a custom feed. Kinds other than
// "default" are treated as custom; unknown custom IDs are a no-op.
func (s *Service) Remove(ctx context.Context, accountID id.AccountID, kind models.Kind, feedID string) error {
	if feedID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	if kind == models.KindDefault {
		if err := s.store.Hide(ctx, accountID, feedID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hide feed")
		}
		return nil
	}
	parsed, err := uuid.Parse(feedID)
	if err != nil {
		return nil
	}
	if err := s.store.DeleteCustom(ctx, accountID, parsed); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove feed")
	}
	return nil
}

// presetFeeds returns the preset list, or none when it cannot be read.
func (s *Service) presetFeeds(ctx context.Context) []contentmodels.Feed {
	data, err := s.presets.Feeds()
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) && s.logger != nil {
			s.logger.WarnContext(ctx, "preset feeds unavailable", "error", err)
		}
		return nil
	}
	return data.Feeds
}

func presetItem(f contentmodels.Feed) models.FeedItem {
	title := f.Title
	return models.FeedItem{
		Type:      models.KindDefault,
		ID:        f.XMLURL,
		FeedURL:   f.XMLURL,
		FeedTitle: &title,
		HTMLURL:   f.HTMLURL,
		Category:  f.Category,
	}
}
