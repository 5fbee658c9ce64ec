package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dailybit/internal/feeds/models"
	"dailybit/internal/platform/postgres"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/sentinel"
)

// Store implements feed preferences over user_feeds and
// user_hidden_defaults.
type Store struct {
	db postgres.DB
}

func New(db postgres.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HiddenDefaults(ctx context.Context, accountID id.AccountID) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT feed_xml_url FROM user_hidden_defaults WHERE user_id = $1 ORDER BY feed_xml_url`,
		uuid.UUID(accountID),
	)
	if err != nil {
		return nil, fmt.Errorf("query hidden feeds: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan hidden feeds: %w", err)
	}
	return urls, nil
}

func (s *Store) ListCustom(ctx context.Context, accountID id.AccountID) ([]models.CustomFeed, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, feed_url, feed_title, created_at
		FROM user_feeds
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("query custom feeds: %w", err)
	}
	feeds, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CustomFeed, error) {
		var (
			f     models.CustomFeed
			owner uuid.UUID
			at    time.Time
		)
		if err := row.Scan(&f.ID, &owner, &f.FeedURL, &f.FeedTitle, &at); err != nil {
			return models.CustomFeed{}, err
		}
		f.AccountID = id.AccountID(owner)
		f.CreatedAt = at
		return f, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan custom feeds: %w", err)
	}
	return feeds, nil
}

func (s *Store) CountCustom(ctx context.Context, accountID id.AccountID) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM user_feeds WHERE user_id = $1`, uuid.UUID(accountID),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count custom feeds: %w", err)
	}
	return n, nil
}

func (s *Store) AddCustom(ctx context.Context, feed models.CustomFeed) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_feeds (id, user_id, feed_url, feed_title, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, feed.ID, uuid.UUID(feed.AccountID), feed.FeedURL, feed.FeedTitle, feed.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert custom feed: %w", err)
	}
	return nil
}

func (s *Store) DeleteCustom(ctx context.Context, accountID id.AccountID, feedID uuid.UUID) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM user_feeds WHERE id = $1 AND user_id = $2`, feedID, uuid.UUID(accountID),
	); err != nil {
		return fmt.Errorf("delete custom feed: %w", err)
	}
	return nil
}

func (s *Store) Hide(ctx context.Context, accountID id.AccountID, feedURL string) error {
	if _, err := s.db.Exec(ctx, `
		INSERT INTO user_hidden_defaults (user_id, feed_xml_url)
		VALUES ($1, $2)
		ON CONFLICT (user_id, feed_xml_url) DO NOTHING
	`, uuid.UUID(accountID), feedURL); err != nil {
		return fmt.Errorf("hide feed: %w", err)
	}
	return nil
}

func (s *Store) Unhide(ctx context.Context, accountID id.AccountID, feedURL string) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM user_hidden_defaults WHERE user_id = $1 AND feed_xml_url = $2`,
		uuid.UUID(accountID), feedURL,
	); err != nil {
		return fmt.Errorf("unhide feed: %w", err)
	}
	return nil
}
