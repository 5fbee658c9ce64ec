// Package analytics summarizes the access log for the dashboard.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"
	"golang.org/x/sync/errgroup"

	"dailybit/internal/accesslog/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/requestcontext"
)

const (
	// RecentLimit is the number of newest records in a summary.
	RecentLimit = 50
	// breakdownWindow is how far back the per-agent and per-endpoint
	// breakdowns and the "week" count reach.
	breakdownWindow = 7 * 24 * time.Hour
)

// Reader is the read side of the access log.
type Reader interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByAgent(ctx context.Context, since time.Time) ([]models.AgentCount, error)
	CountByEndpoint(ctx context.Context, since time.Time) ([]models.EndpointCount, error)
	ListRecent(ctx context.Context, limit int) ([]models.Record, error)
}

// Counts are record totals for calendar windows ending now.
type Counts struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
}

// Client is the parsed form of a recorded user agent.
type Client struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Bot     bool   `json:"bot"`
	Mobile  bool   `json:"mobile"`
}

// Entry is one recent access log record.
type Entry struct {
	ID           id.LogID          `json:"id"`
	Endpoint     string            `json:"endpoint"`
	Method       string            `json:"method"`
	UserAgent    string            `json:"user_agent"`
	AgentName    *string           `json:"agent_name"`
	TokenOwnerID *id.AccountID     `json:"token_owner_id"`
	QueryParams  map[string]string `json:"query_params"`
	StatusCode   int               `json:"status_code"`
	CreatedAt    time.Time         `json:"created_at"`
	Client       Client            `json:"client"`
}

// Summary is the dashboard payload.
type Summary struct {
	Counts     Counts                 `json:"counts"`
	ByAgent    []models.AgentCount    `json:"by_agent"`
	ByEndpoint []models.EndpointCount `json:"by_endpoint"`
	Recent     []Entry                `json:"recent"`
}

// Windows returns the starts of the today, week and month windows for now,
// in now's location.
func Windows(now time.Time) (today, week, month time.Time) {
	y, m, d := now.Date()
	today = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	week = today.Add(-breakdownWindow)
	month = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return today, week, month
}

// Service builds summaries from the access log.
type Service struct {
	reader Reader
}

// NewService constructs a summary service over reader.
func NewService(reader Reader) (*Service, error) {
	if reader == nil {
		return nil, errors.New("access log reader is required")
	}
	return &Service{reader: reader}, nil
}

// Summarize runs every query concurrently and fails if any of them fails.
func (s *Service) Summarize(ctx context.Context, now time.Time) (*Summary, error) {
	today, week, month := Windows(now)

	var sum Summary
	var recent []models.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.Counts.Today, err = s.reader.CountSince(gctx, today)
		return err
	})
	g.Go(func() (err error) {
		sum.Counts.Week, err = s.reader.CountSince(gctx, week)
		return err
	})
	g.Go(func() (err error) {
		sum.Counts.Month, err = s.reader.CountSince(gctx, month)
		return err
	})
	g.Go(func() (err error) {
		sum.ByAgent, err = s.reader.CountByAgent(gctx, week)
		return err
	})
	g.Go(func() (err error) {
		sum.ByEndpoint, err = s.reader.CountByEndpoint(gctx, week)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.reader.ListRecent(gctx, RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if sum.ByAgent == nil {
		sum.ByAgent = []models.AgentCount{}
	}
	if sum.ByEndpoint == nil {
		sum.ByEndpoint = []models.EndpointCount{}
	}
	sum.Recent = make([]Entry, 0, len(recent))
	for _, rec := range recent {
		sum.Recent = append(sum.Recent, toEntry(rec))
	}
	return &sum, nil
}

func toEntry(rec models.Record) Entry {
	return Entry{
		ID:           rec.ID,
		Endpoint:     rec.Endpoint,
		Method:       rec.Method,
		UserAgent:    rec.UserAgent,
		AgentName:    rec.AgentName,
		TokenOwnerID: rec.TokenOwnerID,
		QueryParams:  rec.QueryParams,
		StatusCode:   rec.StatusCode,
		CreatedAt:    rec.CreatedAt,
		Client:       ParseClient(rec.UserAgent),
	}
}

// ParseClient extracts browser and OS families from a user agent.
func ParseClient(raw string) Client {
	if raw == "" || raw == models.UnknownAgent {
		return Client{}
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	return Client{
		Browser: browser,
		OS:      ua.OS(),
		Bot:     ua.Bot(),
		Mobile:  ua.Mobile(),
	}
}

// Handler serves the dashboard summary.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the summary handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the summary endpoint. The router must already require a
// session.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/user/analytics", h.HandleSummary)
}

// HandleSummary handles GET /api/user/analytics.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := requestcontext.AccountID(ctx); !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}
	sum, err := h.service.Summarize(ctx, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "analytics summary failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Analytics unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sum)
}
