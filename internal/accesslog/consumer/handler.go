// Package consumer drains the access log topic into the record store.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"dailybit/internal/accesslog"
	kafkastore "dailybit/internal/accesslog/store/kafka"
	kafkaconsumer "dailybit/internal/platform/kafka/consumer"
)

// Handler writes each consumed access log record to the store.
type Handler struct {
	store  accesslog.Store
	logger *slog.Logger
}

func NewHandler(store accesslog.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Handle decodes and stores one record. Undecodable payloads are dropped so
// they are committed and never redelivered; store failures are returned to
// the poll loop for logging.
func (h *Handler) Handle(ctx context.Context, msg *kafkaconsumer.Message) error {
	rec, err := kafkastore.Decode(msg.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "dropping malformed access log message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	if err := h.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("store access log record %s: %w", rec.ID, err)
	}
	return nil
}
