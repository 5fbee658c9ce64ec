package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dailybit/internal/notes/models"
	id "dailybit/pkg/domain"
	dErrors "dailybit/pkg/domain-errors"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/requestcontext"
)

const notesPath = "/api/user/notes"

// Service reads and writes an account's article notes.
type Service interface {
	Get(ctx context.Context, accountID id.AccountID, articleID string) (*models.Note, error)
	List(ctx context.Context, accountID id.AccountID) ([]models.Note, error)
	Save(ctx context.Context, accountID id.AccountID, articleID string, customSummary, note *string) (*models.Note, error)
	Delete(ctx context.Context, accountID id.AccountID, articleID string) error
}

// Handler serves the dashboard notes endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs the notes handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the notes endpoints. The router must already require a
// session.
func (h *Handler) Register(r chi.Router) {
	r.Get(notesPath, h.HandleGet)
	r.Post(notesPath, h.HandleSave)
	r.Delete(notesPath, h.HandleDelete)
}

type saveRequest struct {
	ArticleID     string  `json:"article_id"`
	CustomSummary *string `json:"custom_summary"`
	Note          *string `json:"note"`
}

type deleteRequest struct {
	ArticleID string `json:"article_id"`
}

// HandleGet handles GET /api/user/notes. With ?article_id= it returns that
// note or null; without it, the most recent notes.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.sessionAccount(w, r)
	if !ok {
		return
	}
	if articleID := r.URL.Query().Get("article_id"); articleID != "" {
		note, err := h.service.Get(r.Context(), accountID, articleID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, note)
		return
	}
	notes, err := h.service.List(r.Context(), accountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notes)
}

// HandleSave handles POST /api/user/notes.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.sessionAccount(w, r)
	if !ok {
		return
	}
	var req saveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	note, err := h.service.Save(r.Context(), accountID, req.ArticleID, req.CustomSummary, req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, note)
}

// HandleDelete handles DELETE /api/user/notes.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.sessionAccount(w, r)
	if !ok {
		return
	}
	var req deleteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), accountID, req.ArticleID); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) sessionAccount(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	accountID, ok := requestcontext.AccountID(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	return accountID, ok
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := dErrors.HTTPStatus(dErrors.CodeOf(err))
	msg := "Internal server error"
	var de *dErrors.Error
	if status != http.StatusInternalServerError && errors.As(err, &de) {
		msg = de.Message
	}
	if status == http.StatusInternalServerError {
		ctx := r.Context()
		h.logger.ErrorContext(ctx, "notes request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteJSON(w, status, map[string]string{"error": msg})
}
