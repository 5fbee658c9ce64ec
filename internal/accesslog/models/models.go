package models

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	id "dailybit/pkg/domain"
)

// MaxUserAgentLength bounds the stored user agent.
const MaxUserAgentLength = 500

// tokenParam is stripped from stored query parameters.
const tokenParam = "token"

// Record is one append-only access log row.
type Record struct {
	ID           id.LogID
	Endpoint     string
	Method       string
	UserAgent    string
	AgentName    *string
	TokenOwnerID *id.AccountID
	QueryParams  map[string]string
	StatusCode   int
	CreatedAt    time.Time
}

// Snapshot is everything the logger needs from a request, captured before
// the request's lifetime ends.
type Snapshot struct {
	Endpoint  string
	Method    string
	UserAgent string
	Query     url.Values
	Status    int
	Owner     *id.AccountID
	At        time.Time
}

// Token returns the bearer token carried in the query, if any.
func (s Snapshot) Token() string {
	return strings.TrimSpace(s.Query.Get(tokenParam))
}

// NewRecord builds a record from a snapshot. owner overrides the snapshot's
// owner when non-nil.
func NewRecord(s Snapshot, owner *id.AccountID) Record {
	if owner == nil {
		owner = s.Owner
	}
	ua := TruncateUserAgent(s.UserAgent)
	rec := Record{
		ID:           id.NewLogID(),
		Endpoint:     s.Endpoint,
		Method:       s.Method,
		UserAgent:    ua,
		TokenOwnerID: owner,
		QueryParams:  SanitizeQuery(s.Query),
		StatusCode:   s.Status,
		CreatedAt:    s.At,
	}
	if vendor := VendorFor(ua); vendor != "" {
		rec.AgentName = &vendor
	}
	return rec
}

// TruncateUserAgent cuts ua to MaxUserAgentLength bytes without splitting a
// UTF-8 sequence.
func TruncateUserAgent(ua string) string {
	if len(ua) <= MaxUserAgentLength {
		return ua
	}
	cut := MaxUserAgentLength
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}

// SanitizeQuery flattens q to its first values and drops the bearer token.
// Returns nil when nothing is left.
func SanitizeQuery(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for key, values := range q {
		if key == tokenParam || len(values) == 0 {
			continue
		}
		out[key] = values[0]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// UnknownAgent labels records whose vendor could not be inferred.
const UnknownAgent = "unknown"

// AgentCount is one row of the per-vendor breakdown.
type AgentCount struct {
	AgentName string `json:"agent_name"`
	Count     int64  `json:"count"`
}

// EndpointCount is one row of the per-endpoint breakdown.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int64  `json:"count"`
}
