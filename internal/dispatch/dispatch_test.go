package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"dailybit/internal/agent/classifier"
	"dailybit/internal/dispatch/metrics"
	"dailybit/internal/gate"
	"dailybit/internal/platform/config"
	"dailybit/internal/platform/logger"
)

const testPassphrase = "open-sesame"

type stubRefresher struct {
	calls int
	err   error
}

func (s *stubRefresher) Refresh(_ context.Context, w http.ResponseWriter, _ *http.Request) error {
	s.calls++
	w.Header().Set("Set-Cookie", "dailybit_session=refreshed")
	return s.err
}

// =============================================================================
// Dispatcher Test Suite
// =============================================================================
// Justification for unit tests: the dispatcher decides which requests ever
// reach a handler. Tests drive the middleware end to end with httptest and
// assert both the terminal responses and whether the next handler ran.

type DispatcherSuite struct {
	suite.Suite
	cfg        config.GateConfig
	refresher  *stubRefresher
	metrics    *metrics.Metrics
	handler    http.Handler
	nextCalled int
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.cfg = config.DefaultGate()
	s.cfg.Passphrase = testPassphrase
	s.refresher = &stubRefresher{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.nextCalled = 0

	d, err := New(classifier.New(), gate.New(s.cfg), s.cfg, logger.Discard(),
		WithSessionRefresher(s.refresher),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.nextCalled++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.handler = d.Middleware(next)
}

func (s *DispatcherSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *DispatcherSuite) decodeRejection(rec *httptest.ResponseRecorder) gate.ErrorResponse {
	var body gate.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *DispatcherSuite) assertDiscoveryHeaders(rec *httptest.ResponseRecorder) {
	s.Equal(config.DefaultSkillURL, rec.Header().Get("X-Skill"))
	s.Equal(config.DefaultLlmsTxtURL, rec.Header().Get("X-Llms-Txt"))
	s.Equal(config.DefaultAIPluginURL, rec.Header().Get("X-AI-Plugin"))
	s.Contains(rec.Header().Values("Link"), `</SKILL.md>; rel="ai-skill"; type="text/markdown"`)
}

func browserRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/537.36")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *DispatcherSuite) TestNew() {
	s.Run("nil classifier returns error", func() {
		_, err := New(nil, gate.New(s.cfg), s.cfg, nil)
		s.Error(err)
		s.Contains(err.Error(), "classifier is required")
	})

	s.Run("nil gate returns error", func() {
		_, err := New(classifier.New(), nil, s.cfg, nil)
		s.Error(err)
		s.Contains(err.Error(), "gate protocol is required")
	})
}

// =============================================================================
// End-to-end Scenarios
// =============================================================================

func (s *DispatcherSuite) TestScenarioA_NoParameters() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/articles/latest", nil))

	s.Equal(http.StatusForbidden, rec.Code)
	body := s.decodeRejection(rec)
	s.Equal(gate.ErrAckRequired, body.Error)
	s.Equal(config.DefaultSkillURL, body.SkillURL)
	s.NotContains(rec.Body.String(), testPassphrase)
	s.Zero(s.nextCalled)
	s.assertDiscoveryHeaders(rec)
}

func (s *DispatcherSuite) TestScenarioA_RepeatedRequestIsIdempotent() {
	first := s.serve(httptest.NewRequest(http.MethodGet, "/api/articles/latest", nil))
	second := s.serve(httptest.NewRequest(http.MethodGet, "/api/articles/latest", nil))

	s.Equal(first.Code, second.Code)
	s.JSONEq(first.Body.String(), second.Body.String())
	s.Zero(s.nextCalled)
}

func (s *DispatcherSuite) TestScenarioB_AckWithoutRationale() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/articles/latest?ack="+testPassphrase, nil))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(gate.ErrRationaleRequired, s.decodeRejection(rec).Error)
	s.Zero(s.nextCalled)
}

func (s *DispatcherSuite) TestScenarioC_FullyAcknowledgedRequestPasses() {
	target := "/api/articles/latest?ack=" + testPassphrase +
		"&rationale=user_debugging_kubernetes_deployment&pstate=no_token"
	rec := s.serve(httptest.NewRequest(http.MethodGet, target, nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(1, s.nextCalled)
	s.assertDiscoveryHeaders(rec)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.GateDecisions.WithLabelValues(gate.Pass.String())))
}

func (s *DispatcherSuite) TestScenarioD_NavigateDominatesKnownBot() {
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("User-Agent", "GPTBot/1.0")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	rec := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(1, s.nextCalled)
}

func (s *DispatcherSuite) TestScenarioE_BareClientOnRootIsRedirected() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "some-fetcher/0.1")
	req.Header.Set("Accept", "*/*")
	rec := s.serve(req)

	s.Equal(http.StatusFound, rec.Code)
	s.Equal(config.DefaultSkillURL, rec.Header().Get("Location"))
	s.Zero(s.nextCalled)
	s.assertDiscoveryHeaders(rec)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Redirects))
}

// =============================================================================
// Classification and Gate Routing
// =============================================================================

func (s *DispatcherSuite) TestHumanOverrideSkipsClassification() {
	req := httptest.NewRequest(http.MethodGet, "/articles/some-slug?human=1", nil)
	req.Header.Set("User-Agent", "ClaudeBot/1.0")
	rec := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Verdicts.WithLabelValues("override")))
}

func (s *DispatcherSuite) TestBrowserOnHumanPageIsServed() {
	rec := s.serve(browserRequest("/"))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(1, s.nextCalled)
}

func (s *DispatcherSuite) TestClientNavigationIsNeverRedirected() {
	req := httptest.NewRequest(http.MethodGet, "/feeds", nil)
	req.Header.Set("User-Agent", "GPTBot")
	req.Header.Set("RSC", "1")
	rec := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *DispatcherSuite) TestAgentOnNonHumanPathIsNotRedirected() {
	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	req.Header.Set("User-Agent", "GPTBot")
	rec := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(1, s.nextCalled)
}

func (s *DispatcherSuite) TestUngatedPathIgnoresGate() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/search?q=go", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.assertDiscoveryHeaders(rec)
}

func (s *DispatcherSuite) TestInconsistentPermissionState() {
	target := "/api/articles/latest?ack=" + testPassphrase + "&rationale=abcdef&pstate=has_token"
	rec := s.serve(httptest.NewRequest(http.MethodGet, target, nil))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(gate.ErrPStateInconsistent, s.decodeRejection(rec).Error)
}

// =============================================================================
// Session Refresh
// =============================================================================

func (s *DispatcherSuite) TestSessionRefresh() {
	s.Run("auth-aware path refreshes before delegation", func() {
		rec := s.serve(browserRequest("/dashboard"))
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(1, s.refresher.calls)
		s.Equal("dailybit_session=refreshed", rec.Header().Get("Set-Cookie"))
	})

	s.Run("other paths never refresh", func() {
		s.refresher.calls = 0
		s.serve(browserRequest("/about"))
		s.serve(httptest.NewRequest(http.MethodGet, "/api/tags", nil))
		s.Zero(s.refresher.calls)
	})

	s.Run("refresh failure does not block", func() {
		s.refresher.err = errors.New("redis down")
		rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/user/feeds", nil))
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.RefreshFailures))
	})
}
