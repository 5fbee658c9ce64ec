package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dailybit/internal/platform/postgres"
	"dailybit/internal/profile/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/sentinel"
)

// Store reads and updates the profiles table.
type Store struct {
	db postgres.DB
}

// New creates a PostgreSQL profile store.
func New(db postgres.DB) *Store {
	return &Store{db: db}
}

// Save upserts a profile. Used by seeding and tests; production rows are
// created by the sign-in flow.
func (s *Store) Save(ctx context.Context, p models.Profile) error {
	if p.Tier == "" {
		p.Tier = models.TierFree
	}
	query := `
		INSERT INTO profiles (id, email, api_token, tier, subscription_id, subscription_status, custom_skill_md)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			api_token = EXCLUDED.api_token,
			tier = EXCLUDED.tier,
			subscription_id = EXCLUDED.subscription_id,
			subscription_status = EXCLUDED.subscription_status,
			custom_skill_md = EXCLUDED.custom_skill_md,
			updated_at = now()
	`
	_, err := s.db.Exec(ctx, query,
		uuid.UUID(p.ID), p.Email, p.APIToken, string(p.Tier),
		p.SubscriptionID, p.SubscriptionStatus, p.CustomSkillMD,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// FindByID returns the profile for accountID.
func (s *Store) FindByID(ctx context.Context, accountID id.AccountID) (*models.Profile, error) {
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(api_token, ''), tier,
			   COALESCE(subscription_id, ''), COALESCE(subscription_status, ''),
			   COALESCE(custom_skill_md, ''), created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	var (
		p    models.Profile
		pid  uuid.UUID
		tier string
	)
	err := s.db.QueryRow(ctx, query, uuid.UUID(accountID)).Scan(
		&pid, &p.Email, &p.APIToken, &tier,
		&p.SubscriptionID, &p.SubscriptionStatus,
		&p.CustomSkillMD, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	p.ID = id.AccountID(pid)
	p.Tier = models.Tier(tier)
	return &p, nil
}

// FindAccountByToken is a single point lookup on the unique api_token column.
func (s *Store) FindAccountByToken(ctx context.Context, token string) (id.AccountID, error) {
	var accountID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM profiles WHERE api_token = $1`, token).Scan(&accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return id.AccountID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return id.AccountID{}, fmt.Errorf("find account by token: %w", err)
	}
	return id.AccountID(accountID), nil
}

// UpdateSubscription writes the billing state for accountID.
func (s *Store) UpdateSubscription(ctx context.Context, accountID id.AccountID, sub models.Subscription) error {
	query := `
		UPDATE profiles
		SET tier = $2, subscription_id = NULLIF($3, ''), subscription_status = NULLIF($4, ''), updated_at = now()
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, uuid.UUID(accountID), string(sub.Tier), sub.ID, sub.Status)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CustomSkill returns the account's personalised skill document, or "".
func (s *Store) CustomSkill(ctx context.Context, accountID id.AccountID) (string, error) {
	var md string
	err := s.db.QueryRow(ctx, `SELECT COALESCE(custom_skill_md, '') FROM profiles WHERE id = $1`, uuid.UUID(accountID)).Scan(&md)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find custom skill: %w", err)
	}
	return md, nil
}

// SetCustomSkill replaces the personalised skill document. An empty md
// clears it.
func (s *Store) SetCustomSkill(ctx context.Context, accountID id.AccountID, md string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE profiles SET custom_skill_md = NULLIF($2, ''), updated_at = now() WHERE id = $1`,
		uuid.UUID(accountID), md,
	)
	if err != nil {
		return fmt.Errorf("update custom skill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
