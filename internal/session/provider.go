// Package session is the browser authentication collaborator: a signed
// cookie that points at a server-side session with a sliding expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dailybit/internal/platform/config"
	id "dailybit/pkg/domain"
	dErrors "dailybit/pkg/domain-errors"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/platform/sentinel"
	"dailybit/pkg/requestcontext"
)

// Provider issues, validates and refreshes session cookies.
type Provider struct {
	store      Store
	signer     signer
	logger     *slog.Logger
	cookieName string
	ttl        time.Duration
	secure     bool
}

// Option configures the Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates a Provider from the session config.
func New(store Store, cfg config.SessionConfig, opts ...Option) (*Provider, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.SigningKey == "" {
		return nil, errors.New("session signing key is required")
	}
	p := &Provider{
		store:      store,
		signer:     signer{key: []byte(cfg.SigningKey)},
		logger:     slog.Default(),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}
	if p.cookieName == "" {
		p.cookieName = config.DefaultSessionCookie
	}
	if p.ttl <= 0 {
		p.ttl = config.DefaultSessionTTL
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Issue starts a session for accountID and sets the cookie on w.
func (p *Provider) Issue(ctx context.Context, w http.ResponseWriter, accountID id.AccountID) (*Session, error) {
	now := requestcontext.Now(ctx)
	sess := Session{
		ID:         id.NewSessionID(),
		AccountID:  accountID,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := p.store.Create(ctx, sess, p.ttl); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := p.setCookie(w, sess, now); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CurrentAccount returns the account behind the request's session cookie.
func (p *Provider) CurrentAccount(ctx context.Context, r *http.Request) (id.AccountID, error) {
	sess, err := p.current(ctx, r)
	if err != nil {
		return id.AccountID{}, err
	}
	return sess.AccountID, nil
}

// Refresh slides the session expiry and re-signs the cookie. A request
// without a cookie is not an error.
func (p *Provider) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if _, err := r.Cookie(p.cookieName); errors.Is(err, http.ErrNoCookie) {
		return nil
	}
	sess, err := p.current(ctx, r)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			p.clearCookie(w)
		}
		return err
	}
	now := requestcontext.Now(ctx)
	if err := p.store.Touch(ctx, sess.ID, now, p.ttl); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			p.clearCookie(w)
			return dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return fmt.Errorf("refresh session: %w", err)
	}
	return p.setCookie(w, *sess, now)
}

// Revoke ends the request's session and clears the cookie.
func (p *Provider) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer p.clearCookie(w)
	cookie, err := r.Cookie(p.cookieName)
	if err != nil {
		return nil
	}
	_, sessionID, err := p.signer.verify(cookie.Value, requestcontext.Now(ctx))
	if err != nil {
		return nil
	}
	return p.store.Delete(ctx, sessionID)
}

// RequireSession rejects requests without a valid session and stores the
// account and session IDs in the request context.
func (p *Provider) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := p.current(ctx, r)
		if err != nil {
			if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
				p.logger.ErrorContext(ctx, "session lookup failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
			}
			httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		ctx = requestcontext.WithAccountID(ctx, sess.AccountID)
		ctx = requestcontext.WithSessionID(ctx, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleLogout handles POST /api/user/logout.
func (p *Provider) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := p.Revoke(ctx, w, r); err != nil {
		p.logger.WarnContext(ctx, "session revoke failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Provider) current(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(p.cookieName)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no session")
	}
	accountID, sessionID, err := p.signer.verify(cookie.Value, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	sess, err := p.store.Get(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.AccountID != accountID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session subject mismatch")
	}
	return sess, nil
}

func (p *Provider) setCookie(w http.ResponseWriter, sess Session, now time.Time) error {
	token, err := p.signer.sign(sess, now, p.ttl)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(p.ttl),
		MaxAge:   int(p.ttl.Seconds()),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (p *Provider) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
