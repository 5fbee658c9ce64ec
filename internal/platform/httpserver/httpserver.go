package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"dailybit/internal/platform/config"
)

// New builds the HTTP server. WriteTimeout outlasts the API handler timeout
// so a timed-out request can still be answered. Server errors such as TLS
// handshake failures go to logger at warn level.
func New(cfg config.Server, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
