package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dailybit/internal/notes/models"
	"dailybit/internal/platform/postgres"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/sentinel"
)

const noteColumns = `user_id, article_id, custom_summary, note, created_at, updated_at`

// Store implements notes over the user_notes table.
type Store struct {
	db postgres.DB
}

func New(db postgres.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, accountID id.AccountID, articleID string) (*models.Note, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+noteColumns+` FROM user_notes WHERE user_id = $1 AND article_id = $2`,
		uuid.UUID(accountID), articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query note: %w", err)
	}
	note, err := pgx.CollectExactlyOneRow(rows, scanNote)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan note: %w", err)
	}
	return &note, nil
}

func (s *Store) List(ctx context.Context, accountID id.AccountID, limit int) ([]models.Note, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+noteColumns+`
		FROM user_notes
		WHERE user_id = $1
		ORDER BY updated_at DESC, article_id
		LIMIT $2
	`, uuid.UUID(accountID), limit)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	notes, err := pgx.CollectRows(rows, scanNote)
	if err != nil {
		return nil, fmt.Errorf("scan notes: %w", err)
	}
	return notes, nil
}

func (s *Store) Upsert(ctx context.Context, note models.Note) (*models.Note, error) {
	rows, err := s.db.Query(ctx, `
		INSERT INTO user_notes (user_id, article_id, custom_summary, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, article_id) DO UPDATE SET
			custom_summary = EXCLUDED.custom_summary,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at
		RETURNING `+noteColumns,
		uuid.UUID(note.AccountID), note.ArticleID, note.CustomSummary, note.Note, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert note: %w", err)
	}
	saved, err := pgx.CollectExactlyOneRow(rows, scanNote)
	if err != nil {
		return nil, fmt.Errorf("scan upserted note: %w", err)
	}
	return &saved, nil
}

func (s *Store) Delete(ctx context.Context, accountID id.AccountID, articleID string) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM user_notes WHERE user_id = $1 AND article_id = $2`,
		uuid.UUID(accountID), articleID,
	); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

func scanNote(row pgx.CollectableRow) (models.Note, error) {
	var (
		n     models.Note
		owner uuid.UUID
	)
	if err := row.Scan(&owner, &n.ArticleID, &n.CustomSummary, &n.Note, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return models.Note{}, err
	}
	n.AccountID = id.AccountID(owner)
	return n, nil
}
