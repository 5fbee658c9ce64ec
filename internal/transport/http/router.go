// Package httptransport assembles the root chi router: platform middleware,
// the dispatcher, every domain handler and the static discovery files.
package httptransport

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dailybit/internal/platform/metrics"
	"dailybit/internal/platform/middleware"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/platform/middleware/admin"
	"dailybit/pkg/platform/middleware/metadata"
	"dailybit/pkg/platform/middleware/request"
	"dailybit/pkg/platform/middleware/requesttime"
)

const apiTimeout = 30 * time.Second

// Registrar mounts a handler's routes.
type Registrar interface {
	Register(r chi.Router)
}

// RegistrarFunc adapts a function to Registrar.
type RegistrarFunc func(r chi.Router)

func (f RegistrarFunc) Register(r chi.Router) { f(r) }

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps is everything the router needs. Nil optional fields disable the
// corresponding feature.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Dispatch runs in front of every route.
	Dispatch func(http.Handler) http.Handler
	// RequireSession guards the dashboard routes.
	RequireSession func(http.Handler) http.Handler

	// Public routes, mounted without a session.
	Public []Registrar
	// User routes, mounted behind RequireSession.
	User []Registrar
	// Logout handles POST /api/user/logout.
	Logout http.HandlerFunc

	Gatherer     prometheus.Gatherer
	MetricsToken string
	Health       map[string]HealthCheck
	Static       fs.FS
}

// NewRouter builds the root handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(d.Logger, d.Metrics))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.LatencyMiddleware(d.Metrics))
	if d.Dispatch != nil {
		r.Use(d.Dispatch)
	}

	r.Get("/healthz", healthHandler(d.Health))
	if d.Gatherer != nil {
		metricsHandler := promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})
		if d.MetricsToken != "" {
			metricsHandler = admin.RequireAdminToken(d.MetricsToken, d.Logger)(metricsHandler)
		}
		r.Handle("/metrics", metricsHandler)
	}

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(apiTimeout))
		for _, reg := range d.Public {
			reg.Register(api)
		}
		if d.RequireSession != nil {
			api.Group(func(user chi.Router) {
				user.Use(d.RequireSession)
				for _, reg := range d.User {
					reg.Register(user)
				}
				if d.Logout != nil {
					user.Post("/api/user/logout", d.Logout)
				}
			})
		}
	})

	if d.Static != nil {
		r.NotFound(staticHandler(d.Static).ServeHTTP)
	}
	return r
}

// StaticDir opens dir as the static root, or returns nil when it is absent.
func StaticDir(dir string) fs.FS {
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return nil
	}
	return os.DirFS(dir)
}

// staticHandler serves discovery files and pre-rendered pages. Markdown is
// served as text/markdown; agents key on that type.
func staticHandler(fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
			return
		}
		if strings.EqualFold(path.Ext(r.URL.Path), ".md") {
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		}
		files.ServeHTTP(w, r)
	})
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := check(ctx)
			cancel()
			if err != nil {
				status = http.StatusServiceUnavailable
				results[name] = "unavailable"
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": results,
		})
	}
}
