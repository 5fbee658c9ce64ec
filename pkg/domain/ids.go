package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "dailybit/pkg/domain-errors"
)

// Typed identifiers. Distinct types keep an account ID from being passed
// where a session or log record ID is expected.
type (
	AccountID uuid.UUID
	SessionID uuid.UUID
	LogID     uuid.UUID
)

func (id AccountID) String() string { return uuid.UUID(id).String() }
func (id AccountID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id LogID) String() string { return uuid.UUID(id).String() }
func (id LogID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewSessionID and NewLogID generate random v4 identifiers.
func NewSessionID() SessionID { return SessionID(uuid.New()) }
func NewLogID() LogID         { return LogID(uuid.New()) }

// ParseAccountID parses an account identifier at a trust boundary.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account ID")
	return AccountID(u), err
}

// ParseSessionID parses a session identifier at a trust boundary.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session ID")
	return SessionID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return u, nil
}

// Text marshalling keeps the canonical UUID form in JSON and Redis values.

func (id AccountID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id LogID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *AccountID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SessionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *LogID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
