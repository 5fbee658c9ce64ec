package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dailybit/internal/feeds/models"
	id "dailybit/pkg/domain"
	dErrors "dailybit/pkg/domain-errors"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/requestcontext"
)

const agentEndpoint = "/api/agent/feeds"

// Service manages an account's feed list.
type Service interface {
	List(ctx context.Context, accountID id.AccountID) ([]models.FeedItem, error)
	Add(ctx context.Context, accountID id.AccountID, feedURL, feedTitle string) (*models.FeedItem, error)
	Remove(ctx context.Context, accountID id.AccountID, kind models.Kind, feedID string) error
}

// TokenAuthorizer authorizes agent calls by API token, writing the 401
// itself on failure.
type TokenAuthorizer interface {
	RequireToken(w http.ResponseWriter, r *http.Request) (id.AccountID, bool)
}

// AccessLogger records calls to agent-facing endpoints.
type AccessLogger interface {
	Log(r *http.Request, endpoint string, status int, owner *id.AccountID)
}

type Handler struct {
	service Service
	tokens  TokenAuthorizer
	access  AccessLogger
	logger  *slog.Logger
}

func New(service Service, tokens TokenAuthorizer, access AccessLogger, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		access:  access,
		logger:  logger,
	}
}

// Register mounts the token-authenticated agent endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get(agentEndpoint, h.HandleAgentList)
	r.Post(agentEndpoint, h.HandleAgentAdd)
	r.Delete(agentEndpoint, h.HandleAgentRemove)
}

// RegisterUser mounts the session-authenticated endpoints. The router must
// already require a session.
func (h *Handler) RegisterUser(r chi.Router) {
	r.Get("/api/user/feeds", h.HandleUserList)
	r.Post("/api/user/feeds", h.HandleUserAdd)
	r.Delete("/api/user/feeds", h.HandleUserRemove)
}

type addRequest struct {
	FeedURL   string `json:"feed_url"`
	FeedTitle string `json:"feed_title"`
}

type removeRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// HandleAgentList handles GET /api/agent/feeds?token=.
func (h *Handler) HandleAgentList(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	status := h.list(w, r, accountID)
	h.access.Log(r, agentEndpoint, status, &accountID)
}

// HandleAgentAdd handles POST /api/agent/feeds?token=.
func (h *Handler) HandleAgentAdd(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	status := h.add(w, r, accountID)
	h.access.Log(r, agentEndpoint, status, &accountID)
}

// HandleAgentRemove handles DELETE /api/agent/feeds?token=. A missing type
// means custom.
func (h *Handler) HandleAgentRemove(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	status := h.remove(w, r, accountID)
	h.access.Log(r, agentEndpoint, status, &accountID)
}

// HandleUserList handles GET /api/user/feeds.
func (h *Handler) HandleUserList(w http.ResponseWriter, r *http.Request) {
	if accountID, ok := h.sessionAccount(w, r); ok {
		h.list(w, r, accountID)
	}
}

// HandleUserAdd handles POST /api/user/feeds.
func (h *Handler) HandleUserAdd(w http.ResponseWriter, r *http.Request) {
	if accountID, ok := h.sessionAccount(w, r); ok {
		h.add(w, r, accountID)
	}
}

// HandleUserRemove handles DELETE /api/user/feeds.
func (h *Handler) HandleUserRemove(w http.ResponseWriter, r *http.Request) {
	if accountID, ok := h.sessionAccount(w, r); ok {
		h.remove(w, r, accountID)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, accountID id.AccountID) int {
	items, err := h.service.List(r.Context(), accountID)
	if err != nil {
		return h.writeError(w, r, err)
	}
	httputil.WriteJSON(w, http.StatusOK, items)
	return http.StatusOK
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request, accountID id.AccountID) int {
	var req addRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return h.writeError(w, r, err)
	}
	if req.FeedURL == "" {
		return h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "feed_url is required"))
	}
	item, err := h.service.Add(r.Context(), accountID, req.FeedURL, req.FeedTitle)
	if err != nil {
		return h.writeError(w, r, err)
	}
	httputil.WriteJSON(w, http.StatusCreated, item)
	return http.StatusCreated
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, accountID id.AccountID) int {
	var req removeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return h.writeError(w, r, err)
	}
	kind := models.Kind(req.Type)
	if kind == "" {
		kind = models.KindCustom
	}
	if err := h.service.Remove(r.Context(), accountID, kind, req.ID); err != nil {
		return h.writeError(w, r, err)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return http.StatusOK
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	accountID, ok := h.tokens.RequireToken(w, r)
	if !ok {
		h.access.Log(r, agentEndpoint, http.StatusUnauthorized, nil)
	}
	return accountID, ok
}

func (h *Handler) sessionAccount(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	accountID, ok := requestcontext.AccountID(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	return accountID, ok
}

// writeError renders err as {"error": message} and returns the status.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) int {
	status := dErrors.HTTPStatus(dErrors.CodeOf(err))
	msg := "Internal server error"
	var de *dErrors.Error
	if status != http.StatusInternalServerError && errors.As(err, &de) {
		msg = de.Message
	}
	if status == http.StatusInternalServerError {
		ctx := r.Context()
		h.logger.ErrorContext(ctx, "feed request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteJSON(w, status, map[string]string{"error": msg})
	return status
}
