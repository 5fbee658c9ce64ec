package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dailybit/internal/accesslog/models"
	"dailybit/internal/platform/postgres"
	id "dailybit/pkg/domain"
)

// Store implements the access log store over the api_logs table.
type Store struct {
	db postgres.DB
}

// New creates a PostgreSQL access log store.
func New(db postgres.DB) *Store {
	return &Store{db: db}
}

// Append inserts one record. Records are never updated; a repeated ID is
// ignored so redelivered records from the topic consumer stay single.
func (s *Store) Append(ctx context.Context, rec models.Record) error {
	var params []byte
	if rec.QueryParams != nil {
		b, err := json.Marshal(rec.QueryParams)
		if err != nil {
			return fmt.Errorf("marshal query params: %w", err)
		}
		params = b
	}

	var ownerID *uuid.UUID
	if rec.TokenOwnerID != nil {
		u := uuid.UUID(*rec.TokenOwnerID)
		ownerID = &u
	}

	query := `
		INSERT INTO api_logs (
			id, endpoint, method, user_agent, agent_name,
			token_owner_id, query_params, status_code, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.Exec(ctx, query,
		uuid.UUID(rec.ID),
		rec.Endpoint,
		rec.Method,
		rec.UserAgent,
		rec.AgentName,
		ownerID,
		params,
		rec.StatusCode,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api log: %w", err)
	}
	return nil
}

// CountSince counts records created at or after since.
func (s *Store) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM api_logs WHERE created_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count api logs: %w", err)
	}
	return n, nil
}

// CountByAgent groups records since the given time by inferred vendor.
// Records without a vendor are reported as models.UnknownAgent.
func (s *Store) CountByAgent(ctx context.Context, since time.Time) ([]models.AgentCount, error) {
	query := `
		SELECT COALESCE(agent_name, 'unknown') AS agent, count(*) AS n
		FROM api_logs
		WHERE created_at >= $1
		GROUP BY agent
		ORDER BY n DESC, agent ASC
	`
	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query api logs by agent: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AgentCount, error) {
		var c models.AgentCount
		err := row.Scan(&c.AgentName, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan api logs by agent: %w", err)
	}
	return out, nil
}

// CountByEndpoint groups records since the given time by endpoint.
func (s *Store) CountByEndpoint(ctx context.Context, since time.Time) ([]models.EndpointCount, error) {
	query := `
		SELECT endpoint, count(*) AS n
		FROM api_logs
		WHERE created_at >= $1
		GROUP BY endpoint
		ORDER BY n DESC, endpoint ASC
	`
	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query api logs by endpoint: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.EndpointCount, error) {
		var c models.EndpointCount
		err := row.Scan(&c.Endpoint, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan api logs by endpoint: %w", err)
	}
	return out, nil
}

// ListRecent returns the N most recent records.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]models.Record, error) {
	query := `
		SELECT id, endpoint, method, user_agent, agent_name,
			   token_owner_id, query_params, status_code, created_at
		FROM api_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query api logs: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan api logs: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.CollectableRow) (models.Record, error) {
	var (
		rec     models.Record
		logID   uuid.UUID
		ownerID *uuid.UUID
		params  []byte
	)
	err := row.Scan(
		&logID,
		&rec.Endpoint,
		&rec.Method,
		&rec.UserAgent,
		&rec.AgentName,
		&ownerID,
		&params,
		&rec.StatusCode,
		&rec.CreatedAt,
	)
	if err != nil {
		return models.Record{}, err
	}
	rec.ID = id.LogID(logID)
	if ownerID != nil {
		owner := id.AccountID(*ownerID)
		rec.TokenOwnerID = &owner
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &rec.QueryParams); err != nil {
			return models.Record{}, fmt.Errorf("decode query params: %w", err)
		}
	}
	return rec, nil
}
