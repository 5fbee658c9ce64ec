package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"dailybit/internal/platform/config"
	"dailybit/internal/platform/logger"
	id "dailybit/pkg/domain"
	dErrors "dailybit/pkg/domain-errors"
	"dailybit/pkg/requestcontext"
)

// =============================================================================
// Session Provider Test Suite
// =============================================================================
// Justification for unit tests: the cookie is the only credential a browser
// holds. Tests pin signature checks, expiry, sliding refresh and revocation.

type ProviderSuite struct {
	suite.Suite
	store    *InMemoryStore
	provider *Provider
	now      time.Time
	account  id.AccountID
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderSuite))
}

func (s *ProviderSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.account = id.AccountID(uuid.New())
	p, err := New(s.store, config.SessionConfig{
		SigningKey: "test-signing-key",
		TTL:        time.Hour,
	}, WithLogger(logger.Discard()))
	s.Require().NoError(err)
	s.provider = p
}

func (s *ProviderSuite) ctx(at time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), at)
}

func (s *ProviderSuite) issue() *http.Cookie {
	rec := httptest.NewRecorder()
	_, err := s.provider.Issue(s.ctx(s.now), rec, s.account)
	s.Require().NoError(err)
	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	return cookies[0]
}

func (s *ProviderSuite) requestWith(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

func (s *ProviderSuite) TestNew() {
	s.Run("store is required", func() {
		_, err := New(nil, config.SessionConfig{SigningKey: "k"})
		s.Require().Error(err)
	})
	s.Run("signing key is required", func() {
		_, err := New(s.store, config.SessionConfig{})
		s.Require().Error(err)
	})
	s.Run("defaults cookie name and ttl", func() {
		p, err := New(s.store, config.SessionConfig{SigningKey: "k"})
		s.Require().NoError(err)
		s.Equal(config.DefaultSessionCookie, p.cookieName)
		s.Equal(config.DefaultSessionTTL, p.ttl)
	})
}

func (s *ProviderSuite) TestIssueSetsHardenedCookie() {
	c := s.issue()
	s.Equal(config.DefaultSessionCookie, c.Name)
	s.True(c.HttpOnly)
	s.Equal("/", c.Path)
	s.Equal(http.SameSiteLaxMode, c.SameSite)
	s.NotEmpty(c.Value)
}

func (s *ProviderSuite) TestCurrentAccount() {
	c := s.issue()

	s.Run("valid cookie resolves the account", func() {
		got, err := s.provider.CurrentAccount(s.ctx(s.now.Add(time.Minute)), s.requestWith(c))
		s.Require().NoError(err)
		s.Equal(s.account, got)
	})

	s.Run("missing cookie is unauthorized", func() {
		_, err := s.provider.CurrentAccount(s.ctx(s.now), s.requestWith(nil))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("tampered cookie is unauthorized", func() {
		bad := *c
		bad.Value = c.Value + "x"
		_, err := s.provider.CurrentAccount(s.ctx(s.now), s.requestWith(&bad))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("cookie signed with another key is unauthorized", func() {
		other, err := New(NewInMemoryStore(), config.SessionConfig{SigningKey: "other-key", TTL: time.Hour})
		s.Require().NoError(err)
		_, err = other.CurrentAccount(s.ctx(s.now), s.requestWith(c))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("expired token is unauthorized", func() {
		_, err := s.provider.CurrentAccount(s.ctx(s.now.Add(2*time.Hour)), s.requestWith(c))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ProviderSuite) TestRefresh() {
	s.Run("anonymous request is not an error", func() {
		rec := httptest.NewRecorder()
		s.NoError(s.provider.Refresh(s.ctx(s.now), rec, s.requestWith(nil)))
		s.Empty(rec.Result().Cookies())
	})

	s.Run("slides the session and re-signs the cookie", func() {
		c := s.issue()
		later := s.now.Add(30 * time.Minute)
		rec := httptest.NewRecorder()
		s.Require().NoError(s.provider.Refresh(s.ctx(later), rec, s.requestWith(c)))

		cookies := rec.Result().Cookies()
		s.Require().Len(cookies, 1)
		s.NotEqual(c.Value, cookies[0].Value)

		// the refreshed token outlives the original expiry
		got, err := s.provider.CurrentAccount(s.ctx(s.now.Add(80*time.Minute)), s.requestWith(cookies[0]))
		s.Require().NoError(err)
		s.Equal(s.account, got)
	})

	s.Run("revoked session clears the cookie", func() {
		c := s.issue()
		s.Require().NoError(s.provider.Revoke(s.ctx(s.now), httptest.NewRecorder(), s.requestWith(c)))

		rec := httptest.NewRecorder()
		err := s.provider.Refresh(s.ctx(s.now), rec, s.requestWith(c))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		cookies := rec.Result().Cookies()
		s.Require().Len(cookies, 1)
		s.Equal(-1, cookies[0].MaxAge)
	})
}

func (s *ProviderSuite) TestRequireSession() {
	var seen id.AccountID
	h := s.provider.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestcontext.AccountID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	s.Run("rejects without a session", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, s.requestWith(nil))
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.JSONEq(`{"error":"Unauthorized"}`, rec.Body.String())
	})

	s.Run("passes the account to the handler", func() {
		c := s.issue()
		req := s.requestWith(c).WithContext(s.ctx(s.now))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(s.account, seen)
	})
}

func (s *ProviderSuite) TestHandleLogout() {
	c := s.issue()
	rec := httptest.NewRecorder()
	s.provider.HandleLogout(rec, s.requestWith(c).WithContext(s.ctx(s.now)))
	s.Equal(http.StatusNoContent, rec.Code)

	_, err := s.provider.CurrentAccount(s.ctx(s.now), s.requestWith(c))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
