package accesslog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dailybit/internal/accesslog/metrics"
	"dailybit/internal/accesslog/mocks"
	"dailybit/internal/accesslog/models"
	"dailybit/internal/accesslog/store/memory"
	"dailybit/internal/platform/logger"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/circuit"
)

//go:generate mockgen -source=logger.go -destination=mocks/mocks.go -package=mocks Store,OwnerResolver

// blockingStore holds every Append until release is closed.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingStore() *blockingStore {
	return &blockingStore{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (b *blockingStore) Append(context.Context, models.Record) error {
	b.calls.Add(1)
	b.entered <- struct{}{}
	<-b.release
	return nil
}

// =============================================================================
// Access Logger Test Suite
// =============================================================================
// Justification for unit tests: the logger runs on a background goroutine and
// must never influence the caller's response. Tests pin the hand-off, owner
// resolution, failure isolation and drain behavior.

type LoggerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	resolver *mocks.MockOwnerResolver
	store    *memory.InMemoryStore
	metrics  *metrics.Metrics
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}

func (s *LoggerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.resolver = mocks.NewMockOwnerResolver(s.ctrl)
	s.store = memory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
}

func (s *LoggerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LoggerSuite) newLogger(store Store, opts ...Option) *Logger {
	opts = append([]Option{
		WithLogger(logger.Discard()),
		WithMetrics(s.metrics),
		WithResolver(s.resolver),
	}, opts...)
	l, err := New(store, opts...)
	s.Require().NoError(err)
	return l
}

func (s *LoggerSuite) close(l *Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(l.Close(ctx))
}

func agentRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; GPTBot/1.2)")
	return req
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *LoggerSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "access log store is required")
	})
}

// =============================================================================
// Record Contents
// =============================================================================

func (s *LoggerSuite) TestLog_ResolvesOwnerFromToken() {
	owner := id.AccountID(uuid.New())
	s.resolver.EXPECT().Resolve(gomock.Any(), "tok-123").Return(owner, true)

	l := s.newLogger(s.store)
	l.Log(agentRequest("/api/articles/latest?token=tok-123&tags=AI&ack=x"), "/api/articles/latest", http.StatusOK, nil)
	s.close(l)

	records := s.store.All()
	s.Require().Len(records, 1)
	rec := records[0]
	s.Equal("/api/articles/latest", rec.Endpoint)
	s.Equal(http.MethodGet, rec.Method)
	s.Equal(http.StatusOK, rec.StatusCode)
	s.Require().NotNil(rec.AgentName)
	s.Equal("ChatGPT", *rec.AgentName)
	s.Require().NotNil(rec.TokenOwnerID)
	s.Equal(owner, *rec.TokenOwnerID)
	s.Equal(map[string]string{"tags": "AI", "ack": "x"}, rec.QueryParams)
	s.NotContains(rec.QueryParams, "token")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Written))
}

func (s *LoggerSuite) TestLog_UnknownTokenLeavesOwnerEmpty() {
	s.resolver.EXPECT().Resolve(gomock.Any(), "bogus").Return(id.AccountID{}, false)

	l := s.newLogger(s.store)
	l.Log(agentRequest("/api/content/abc?token=bogus"), "", http.StatusOK, nil)
	s.close(l)

	records := s.store.All()
	s.Require().Len(records, 1)
	s.Nil(records[0].TokenOwnerID)
	s.Equal("/api/content/abc", records[0].Endpoint)
}

func (s *LoggerSuite) TestLog_ExplicitOwnerSkipsResolution() {
	owner := id.AccountID(uuid.New())

	l := s.newLogger(s.store)
	l.Log(agentRequest("/api/agent/feeds?token=tok"), "/api/agent/feeds", http.StatusCreated, &owner)
	s.close(l)

	records := s.store.All()
	s.Require().Len(records, 1)
	s.Equal(owner, *records[0].TokenOwnerID)
}

func (s *LoggerSuite) TestLog_NoTokenSkipsResolution() {
	l := s.newLogger(s.store)
	l.Log(agentRequest("/api/articles/latest"), "", http.StatusForbidden, nil)
	s.close(l)

	records := s.store.All()
	s.Require().Len(records, 1)
	s.Nil(records[0].QueryParams)
	s.Equal(http.StatusForbidden, records[0].StatusCode)
}

func (s *LoggerSuite) TestLog_TruncatesUserAgent() {
	l := s.newLogger(s.store)
	req := agentRequest("/api/tags")
	req.Header.Set("User-Agent", strings.Repeat("x", 2000))
	l.Log(req, "", http.StatusOK, nil)
	s.close(l)

	records := s.store.All()
	s.Require().Len(records, 1)
	s.Len(records[0].UserAgent, models.MaxUserAgentLength)
	s.Nil(records[0].AgentName)
}

// =============================================================================
// Failure Isolation
// =============================================================================

func (s *LoggerSuite) TestStoreFailureNeverChangesResponse() {
	store := mocks.NewMockStore(s.ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	l := s.newLogger(store)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
		l.Log(r, "/api/tags", http.StatusOK, nil)
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, agentRequest("/api/tags"))
	s.close(l)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"ok":true}`, rec.Body.String())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.PersistFailures))
	s.Zero(testutil.ToFloat64(s.metrics.Written))
}

func (s *LoggerSuite) TestStorePanicIsRecovered() {
	store := mocks.NewMockStore(s.ctrl)
	gomock.InOrder(
		store.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, models.Record) error {
			panic("driver bug")
		}),
		store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil),
	)
	l := s.newLogger(store)

	l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil)
	l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil)
	s.close(l)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.PersistFailures))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Written))
}

func (s *LoggerSuite) TestRequestCancellationDoesNotAbortWrite() {
	ctx, cancel := context.WithCancel(context.Background())
	req := agentRequest("/api/tags").WithContext(ctx)

	l := s.newLogger(s.store)
	l.Log(req, "", http.StatusOK, nil)
	cancel()
	s.close(l)

	s.Len(s.store.All(), 1)
}

func (s *LoggerSuite) TestCircuitBreakerDropsWhileOpen() {
	store := mocks.NewMockStore(s.ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("down")).Times(2)
	breaker := circuit.New("accesslog-test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	l := s.newLogger(store, WithBreaker(breaker))

	for range 5 {
		l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil)
	}
	s.close(l)

	s.True(breaker.IsOpen())
	s.Equal(3.0, testutil.ToFloat64(s.metrics.CircuitBreakerDropped))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CircuitBreakerState))
}

// =============================================================================
// Queue Behavior
// =============================================================================

func (s *LoggerSuite) TestLog_FullQueueDropsWithoutBlocking() {
	store := newBlockingStore()
	l := s.newLogger(store, WithBufferSize(1))

	l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil)
	<-store.entered // worker holds the first record

	done := make(chan struct{})
	go func() {
		l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil) // queued
		l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil) // dropped
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.FailNow("Log blocked on a full queue")
	}

	s.Equal(1.0, testutil.ToFloat64(s.metrics.BufferDropped))
	close(store.release)
	s.close(l)
	s.Equal(int32(2), store.calls.Load())
}

func (s *LoggerSuite) TestClose_HonoursDeadline() {
	store := newBlockingStore()
	l := s.newLogger(store)

	l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil)
	<-store.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Close(ctx)
	s.Require().Error(err)
	s.ErrorIs(err, context.DeadlineExceeded)

	close(store.release)
	s.close(l)
}

func (s *LoggerSuite) TestLog_AfterCloseIsDropped() {
	l := s.newLogger(s.store)
	s.close(l)

	s.NotPanics(func() {
		l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil)
	})
	s.Empty(s.store.All())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BufferDropped))
}

func (s *LoggerSuite) TestLog_NilLoggerIsNoop() {
	var l *Logger
	s.NotPanics(func() {
		l.Log(agentRequest("/api/tags"), "", http.StatusOK, nil)
	})
}
