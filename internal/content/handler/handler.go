package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dailybit/internal/content"
	"dailybit/internal/content/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/platform/sentinel"
	liststr "dailybit/pkg/platform/strings"
	"dailybit/pkg/requestcontext"
)

// MaxBatch is the most article IDs accepted by one /api/content call.
const MaxBatch = 10

// Reader is the read side of the article corpus.
type Reader interface {
	Latest() (*models.Articles, error)
	ByDate(date string) (*models.Articles, error)
	Content(articleID string) (*models.ArticleContent, error)
	Archive() (*models.Archive, error)
	Feeds() (*models.Feeds, error)
	Search(query string) ([]models.SearchResult, error)
}

// AccessLogger records calls to agent-facing endpoints.
type AccessLogger interface {
	Log(r *http.Request, endpoint string, status int, owner *id.AccountID)
}

// Handler serves the public content API.
type Handler struct {
	corpus Reader
	access AccessLogger
	logger *slog.Logger
}

// New constructs a content handler. access may be nil.
func New(corpus Reader, access AccessLogger, logger *slog.Logger) *Handler {
	return &Handler{
		corpus: corpus,
		access: access,
		logger: logger,
	}
}

// Register mounts content endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/articles/latest", h.HandleLatest)
	r.Get("/api/articles/{date}", h.HandleByDate)
	r.Get("/api/content", h.HandleBatch)
	r.Get("/api/content/{id}", h.HandleContent)
	r.Get("/api/digest/latest", h.HandleDigestRedirect)
	r.Get("/api/digest/{date}", h.HandleDigestRedirect)
	r.Get("/api/search", h.HandleSearch)
	r.Get("/api/archive", h.HandleArchive)
	r.Get("/api/tags", h.HandleTags)
	r.Get("/api/feeds", h.HandleFeeds)
	r.Get("/llms-full.txt", h.HandleFullText)
}

// HandleLatest handles GET /api/articles/latest.
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	edition, err := h.corpus.Latest()
	h.writeEdition(w, r, edition, err, "No articles available")
}

// HandleByDate handles GET /api/articles/{date}.
func (h *Handler) HandleByDate(w http.ResponseWriter, r *http.Request) {
	edition, err := h.corpus.ByDate(chi.URLParam(r, "date"))
	h.writeEdition(w, r, edition, err, "Articles not found")
}

func (h *Handler) writeEdition(w http.ResponseWriter, r *http.Request, edition *models.Articles, err error, notFound string) {
	if err != nil {
		status := h.corpusErrorStatus(r, err)
		h.writeJSON(w, r, status, map[string]string{"error": errorMessage(status, notFound)})
		return
	}
	if tags := content.ParseTags(r.URL.Query().Get("tags")); len(tags) > 0 {
		edition = content.FilterByTags(edition, tags)
	}
	h.writeJSON(w, r, http.StatusOK, edition)
}

type batchMiss struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// HandleBatch handles GET /api/content?ids=a,b,c. Unknown IDs come back as
// not_found entries in request order.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error":   "Missing ids",
			"message": "Provide ?ids=id1,id2,id3",
		})
		return
	}

	ids := liststr.SplitList(raw)
	switch {
	case len(ids) == 0:
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Empty ids list"})
		return
	case len(ids) > MaxBatch:
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("Too many ids. Maximum %d per request.", MaxBatch),
		})
		return
	}
	for _, s := range ids {
		if !content.ValidID(s) {
			h.writeJSON(w, r, http.StatusBadRequest, map[string]string{
				"error": "Invalid article ID: " + s,
			})
			return
		}
	}

	articles := make([]any, 0, len(ids))
	for _, s := range ids {
		c, err := h.corpus.Content(s)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				h.logCorpusError(r, err)
			}
			articles = append(articles, batchMiss{ID: s, Error: "not_found"})
			continue
		}
		articles = append(articles, c)
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"articles": articles})
}

// HandleContent handles GET /api/content/{id}.
func (h *Handler) HandleContent(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")
	if !content.ValidID(articleID) {
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Invalid article ID"})
		return
	}
	c, err := h.corpus.Content(articleID)
	if err != nil {
		status := h.corpusErrorStatus(r, err)
		h.writeJSON(w, r, status, map[string]string{"error": errorMessage(status, "Article content not found")})
		return
	}
	h.writeJSON(w, r, http.StatusOK, c)
}

// HandleDigestRedirect permanently redirects the legacy digest routes to
// their article equivalents, keeping the query string.
func (h *Handler) HandleDigestRedirect(w http.ResponseWriter, r *http.Request) {
	target := "/api/articles/latest"
	if date := chi.URLParam(r, "date"); date != "" && date != "latest" {
		target = "/api/articles/" + date
	}
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

// HandleSearch handles GET /api/search?q=.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len([]rune(strings.TrimSpace(q))) < content.MinQueryLength {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Query too short",
			"message": fmt.Sprintf("Provide ?q=keyword (min %d chars)", content.MinQueryLength),
		})
		return
	}
	results, err := h.corpus.Search(q)
	if err != nil {
		h.logCorpusError(r, err)
		results = []models.SearchResult{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"query":   q,
		"count":   len(results),
	})
}

// HandleArchive handles GET /api/archive.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	archive, err := h.corpus.Archive()
	if err != nil {
		h.logCorpusError(r, err)
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Archive unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, archive)
}

// HandleTags handles GET /api/tags with counts from the latest edition.
func (h *Handler) HandleTags(w http.ResponseWriter, r *http.Request) {
	edition, err := h.corpus.Latest()
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			h.logCorpusError(r, err)
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"tags": []models.TagCount{}})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"date": edition.Date,
		"tags": content.TagCounts(edition),
	})
}

// HandleFeeds handles GET /api/feeds.
func (h *Handler) HandleFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.corpus.Feeds()
	if err != nil {
		status := h.corpusErrorStatus(r, err)
		httputil.WriteJSON(w, status, map[string]string{"error": errorMessage(status, "No feeds data available")})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, feeds)
}

// HandleFullText handles GET /llms-full.txt.
func (h *Handler) HandleFullText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	edition, err := h.corpus.Latest()
	if err != nil {
		status := h.corpusErrorStatus(r, err)
		h.logAccess(r, status)
		w.WriteHeader(status)
		if status == http.StatusNotFound {
			_, _ = w.Write([]byte("No articles available yet."))
		}
		return
	}
	h.logAccess(r, http.StatusOK)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content.FullText(edition)))
}

// writeJSON writes the response and records the call in the access log.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	h.logAccess(r, status)
	httputil.WriteJSON(w, status, v)
}

// logAccess records the matched route pattern, so /api/content/{id} groups
// under one endpoint instead of one per article.
func (h *Handler) logAccess(r *http.Request, status int) {
	if h.access == nil {
		return
	}
	h.access.Log(r, routePattern(r), status, nil)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func (h *Handler) corpusErrorStatus(r *http.Request, err error) int {
	if errors.Is(err, sentinel.ErrNotFound) {
		return http.StatusNotFound
	}
	h.logCorpusError(r, err)
	return http.StatusInternalServerError
}

func (h *Handler) logCorpusError(r *http.Request, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "content read failed",
		"request_id", requestcontext.RequestID(ctx),
		"path", r.URL.Path,
		"error", err,
	)
}

func errorMessage(status int, notFound string) string {
	if status == http.StatusNotFound {
		return notFound
	}
	return "Content unavailable"
}
