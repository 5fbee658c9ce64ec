package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dailybit/internal/profile/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/platform/sentinel"
	"dailybit/pkg/requestcontext"
)

// SkillStore reads and writes personalised skill documents.
type SkillStore interface {
	CustomSkill(ctx context.Context, accountID id.AccountID) (string, error)
	SetCustomSkill(ctx context.Context, accountID id.AccountID, md string) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Profile, error)
}

// Handler serves per-account profile resources.
type Handler struct {
	store    SkillStore
	logger   *slog.Logger
	skillURL string
}

// New constructs a profile handler. skillURL is the global skill document
// used when an account has no personalised one.
func New(store SkillStore, logger *slog.Logger, skillURL string) *Handler {
	return &Handler{
		store:    store,
		logger:   logger,
		skillURL: skillURL,
	}
}

// Register mounts the public profile endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/user/skill", h.HandleSkill)
}

// RegisterUser mounts the session-authenticated endpoints. The router must
// already require a session.
func (h *Handler) RegisterUser(r chi.Router) {
	r.Put("/api/user/skill", h.HandleSetSkill)
}

type setSkillRequest struct {
	CustomSkillMD string `json:"custom_skill_md"`
}

// HandleSkill handles GET /api/user/skill?user_id=. It serves the account's
// personalised skill document, or redirects to the global one.
func (h *Handler) HandleSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "user_id query parameter is required",
		})
		return
	}

	accountID, err := id.ParseAccountID(raw)
	if err != nil {
		http.Redirect(w, r, h.skillURL, http.StatusFound)
		return
	}

	md, err := h.store.CustomSkill(ctx, accountID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		h.logger.WarnContext(ctx, "custom skill lookup failed",
			"request_id", requestID,
			"account_id", accountID,
			"error", err,
		)
	}
	if md == "" {
		http.Redirect(w, r, h.skillURL, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}

// HandleSetSkill handles PUT /api/user/skill. Only Pro accounts may publish
// a personalised document; a blank body clears it.
func (h *Handler) HandleSetSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, ok := requestcontext.AccountID(ctx)
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}
	var req setSkillRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	profile, err := h.store.FindByID(ctx, accountID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		h.internalError(w, r, "profile lookup failed", err)
		return
	}
	if !profile.IsPro() {
		httputil.WriteJSON(w, http.StatusForbidden, map[string]string{"error": models.MsgProRequired})
		return
	}

	if err := h.store.SetCustomSkill(ctx, accountID, strings.TrimSpace(req.CustomSkillMD)); err != nil {
		h.internalError(w, r, "custom skill update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}
