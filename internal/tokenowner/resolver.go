// Package tokenowner maps an opaque bearer token to the account that owns it.
package tokenowner

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/platform/sentinel"
)

// TokenParam is the query parameter carrying the bearer token.
const TokenParam = "token"

// Store looks up an account by its unique API token.
type Store interface {
	FindAccountByToken(ctx context.Context, token string) (id.AccountID, error)
}

// Resolver performs token to account lookups. It holds no cache; every call
// is exactly one store query.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver over store.
func New(store Store, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}
	r := &Resolver{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the account owning token. An empty token, an unknown token
// and a store failure all yield ok=false; Resolve never returns an error.
func (r *Resolver) Resolve(ctx context.Context, token string) (id.AccountID, bool) {
	if token == "" {
		return id.AccountID{}, false
	}
	accountID, err := r.store.FindAccountByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.logger.DebugContext(ctx, "token owner lookup failed", "error", err)
		}
		return id.AccountID{}, false
	}
	if accountID.IsNil() {
		return id.AccountID{}, false
	}
	return accountID, true
}

// RequireToken authorizes a caller by its ?token= parameter. On failure it
// writes a 401 response and returns ok=false.
func (r *Resolver) RequireToken(w http.ResponseWriter, req *http.Request) (id.AccountID, bool) {
	token := strings.TrimSpace(req.URL.Query().Get(TokenParam))
	if token == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":   "Missing token",
			"message": "Provide ?token=YOUR_API_TOKEN",
		})
		return id.AccountID{}, false
	}
	accountID, ok := r.Resolve(req.Context(), token)
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "Invalid token",
		})
		return id.AccountID{}, false
	}
	return accountID, true
}
