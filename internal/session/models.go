package session

import (
	"context"
	"time"

	id "dailybit/pkg/domain"
)

// Session is the server-side record behind a session cookie.
type Session struct {
	ID         id.SessionID `json:"id"`
	AccountID  id.AccountID `json:"account_id"`
	CreatedAt  time.Time    `json:"created_at"`
	LastSeenAt time.Time    `json:"last_seen_at"`
}

// Store persists sessions with a sliding expiry.
type Store interface {
	Create(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID id.SessionID) (*Session, error)
	// Touch records activity and pushes the expiry out by ttl.
	Touch(ctx context.Context, sessionID id.SessionID, now time.Time, ttl time.Duration) error
	Delete(ctx context.Context, sessionID id.SessionID) error
}
