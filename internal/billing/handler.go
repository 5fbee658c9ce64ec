package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dailybit/internal/profile/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/platform/sentinel"
	"dailybit/pkg/requestcontext"
)

const maxWebhookBytes = 1 << 20

// SubscriptionStore writes billing state onto profiles.
type SubscriptionStore interface {
	UpdateSubscription(ctx context.Context, accountID id.AccountID, sub models.Subscription) error
}

// Handler receives payment provider webhooks.
type Handler struct {
	store  SubscriptionStore
	secret string
	logger *slog.Logger
}

// NewHandler constructs a webhook handler that verifies payloads with secret.
func NewHandler(store SubscriptionStore, secret string, logger *slog.Logger) *Handler {
	return &Handler{store: store, secret: secret, logger: logger}
}

// Register mounts the webhook endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/webhooks/billing", h.HandleWebhook)
}

// HandleWebhook handles POST /api/webhooks/billing.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if h.secret == "" {
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Webhook secret not configured"})
		return
	}
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "No signature"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Unreadable body"})
		return
	}
	if !Verify(h.secret, body, signature) {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		return
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	eventName := ev.Meta.EventName
	if ev.Meta.CustomData.UserID == "" {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": "no user_id"})
		return
	}

	sub, ok := Transition(eventName, string(ev.Data.ID), ev.Data.Attributes.Status)
	if ok {
		accountID, err := id.ParseAccountID(ev.Meta.CustomData.UserID)
		if err != nil {
			h.logger.WarnContext(ctx, "billing webhook for malformed user id",
				"request_id", requestID,
				"event", eventName,
			)
		} else if err := h.store.UpdateSubscription(ctx, accountID, sub); err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				h.logger.ErrorContext(ctx, "billing webhook update failed",
					"request_id", requestID,
					"event", eventName,
					"account_id", accountID,
					"error", err,
				)
				httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Update failed"})
				return
			}
			h.logger.WarnContext(ctx, "billing webhook for unknown account",
				"request_id", requestID,
				"event", eventName,
				"account_id", accountID,
			)
		} else {
			h.logger.InfoContext(ctx, "subscription updated",
				"request_id", requestID,
				"event", eventName,
				"account_id", accountID,
				"tier", sub.Tier,
			)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "event": eventName})
}
