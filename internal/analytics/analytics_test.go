package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"dailybit/internal/accesslog/models"
	"dailybit/internal/accesslog/store/memory"
	"dailybit/internal/platform/logger"
	id "dailybit/pkg/domain"
	"dailybit/pkg/requestcontext"
)

func TestWindows(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	today, week, month := Windows(now)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), today)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), week)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), month)
}

func TestParseClient(t *testing.T) {
	c := ParseClient("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	assert.Equal(t, "Chrome", c.Browser)
	assert.False(t, c.Bot)

	assert.True(t, ParseClient("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)").Bot)
	assert.Equal(t, Client{}, ParseClient(models.UnknownAgent))
}

type failingReader struct{ *memory.InMemoryStore }

func (failingReader) CountByEndpoint(context.Context, time.Time) ([]models.EndpointCount, error) {
	return nil, errors.New("db down")
}

// =============================================================================
// Analytics Test Suite
// =============================================================================
// Justification for unit tests: window boundaries and the empty-list shapes
// are what the dashboard renders.

type AnalyticsSuite struct {
	suite.Suite
	store   *memory.InMemoryStore
	handler *Handler
	now     time.Time
}

func TestAnalyticsSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsSuite))
}

func (s *AnalyticsSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	svc, err := NewService(s.store)
	s.Require().NoError(err)
	s.handler = NewHandler(svc, logger.Discard())
	s.now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
}

func (s *AnalyticsSuite) add(endpoint string, agent *string, at time.Time) {
	s.Require().NoError(s.store.Append(context.Background(), models.Record{
		ID:         id.NewLogID(),
		Endpoint:   endpoint,
		Method:     http.MethodGet,
		UserAgent:  "GPTBot/1.0",
		AgentName:  agent,
		StatusCode: http.StatusOK,
		CreatedAt:  at,
	}))
}

func (s *AnalyticsSuite) request(withAccount bool) *httptest.ResponseRecorder {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	if withAccount {
		ctx = requestcontext.WithAccountID(ctx, id.AccountID(uuid.New()))
	}
	req := httptest.NewRequest(http.MethodGet, "/api/user/analytics", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.handler.HandleSummary(rec, req)
	return rec
}

func (s *AnalyticsSuite) TestRequiresSession() {
	rec := s.request(false)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AnalyticsSuite) TestEmptyLogHasEmptyLists() {
	rec := s.request(true)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"counts":{"today":0,"week":0,"month":0},"by_agent":[],"by_endpoint":[],"recent":[]}`, rec.Body.String())
}

func (s *AnalyticsSuite) TestSummary() {
	chatgpt := "ChatGPT"
	s.add("/api/articles/latest", &chatgpt, s.now.Add(-time.Hour))
	s.add("/api/articles/latest", nil, s.now.Add(-2*time.Hour))
	s.add("/api/content", &chatgpt, s.now.Add(-3*24*time.Hour))
	s.add("/api/content", &chatgpt, s.now.Add(-8*24*time.Hour))
	s.add("/llms-full.txt", nil, s.now.Add(-40*24*time.Hour))

	rec := s.request(true)
	s.Require().Equal(http.StatusOK, rec.Code)
	var sum Summary
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &sum))

	s.Equal(Counts{Today: 2, Week: 3, Month: 4}, sum.Counts)
	s.Equal([]models.AgentCount{
		{AgentName: "ChatGPT", Count: 2},
		{AgentName: models.UnknownAgent, Count: 1},
	}, sum.ByAgent)
	s.Equal([]models.EndpointCount{
		{Endpoint: "/api/articles/latest", Count: 2},
		{Endpoint: "/api/content", Count: 1},
	}, sum.ByEndpoint)
	s.Require().Len(sum.Recent, 5)
	s.Equal("/api/articles/latest", sum.Recent[0].Endpoint)
	s.Equal("GPTBot/1.0", sum.Recent[0].UserAgent)
}

func (s *AnalyticsSuite) TestRecentIsCapped() {
	for i := range RecentLimit + 10 {
		s.add("/api/content", nil, s.now.Add(-time.Duration(i)*time.Minute))
	}
	svc, err := NewService(s.store)
	s.Require().NoError(err)
	sum, err := svc.Summarize(context.Background(), s.now)
	s.Require().NoError(err)
	s.Len(sum.Recent, RecentLimit)
}

func (s *AnalyticsSuite) TestQueryFailureIsInternal() {
	svc, err := NewService(failingReader{s.store})
	s.Require().NoError(err)
	h := NewHandler(svc, logger.Discard())

	ctx := requestcontext.WithAccountID(context.Background(), id.AccountID(uuid.New()))
	rec := httptest.NewRecorder()
	h.HandleSummary(rec, httptest.NewRequest(http.MethodGet, "/api/user/analytics", nil).WithContext(ctx))
	s.Equal(http.StatusInternalServerError, rec.Code)
}

func TestNewServiceRequiresReader(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
