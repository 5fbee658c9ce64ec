// Package dispatch is the single entry point in front of every content
// handler. It redirects agents away from human pages, enforces the skill
// gate on API paths, refreshes sessions on auth-aware paths and decorates
// every response with protocol discovery headers.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dailybit/internal/agent/classifier"
	"dailybit/internal/dispatch/metrics"
	"dailybit/internal/gate"
	"dailybit/internal/platform/config"
	"dailybit/pkg/platform/httputil"
	"dailybit/pkg/requestcontext"
)

// HumanOverrideParam bypasses classification when present in the query.
const HumanOverrideParam = "human"

const tracerName = "dailybit/dispatch"

// SessionRefresher extends the caller's session. Implementations may write
// cookies to w. Errors never block the request.
type SessionRefresher interface {
	Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Dispatcher composes the classifier and gate in front of the router.
type Dispatcher struct {
	classifier *classifier.Classifier
	gate       *gate.Protocol
	logger     *slog.Logger
	refresher  SessionRefresher
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	skillURL          string
	discovery         http.Header
	navHeader         string
	humanExact        map[string]struct{}
	humanPrefixes     []string
	authAwarePrefixes []string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSessionRefresher enables session refresh on auth-aware paths.
func WithSessionRefresher(r SessionRefresher) Option {
	return func(d *Dispatcher) {
		d.refresher = r
	}
}

// WithMetrics sets the Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// New builds a Dispatcher. The root path "/" is always treated as human
// facing; the remaining human-facing entries are prefixes.
func New(c *classifier.Classifier, g *gate.Protocol, cfg config.GateConfig, logger *slog.Logger, opts ...Option) (*Dispatcher, error) {
	if c == nil {
		return nil, errors.New("classifier is required")
	}
	if g == nil {
		return nil, errors.New("gate protocol is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		classifier:        c,
		gate:              g,
		logger:            logger,
		tracer:            otel.Tracer(tracerName),
		skillURL:          cfg.SkillURL,
		discovery:         discoveryHeaders(cfg),
		navHeader:         cfg.ClientNavHeader,
		humanExact:        map[string]struct{}{"/": {}},
		authAwarePrefixes: cfg.AuthAwarePrefixes,
	}
	for _, p := range cfg.HumanFacingPrefixes {
		if p == "/" {
			continue
		}
		d.humanPrefixes = append(d.humanPrefixes, p)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func discoveryHeaders(cfg config.GateConfig) http.Header {
	h := http.Header{}
	if cfg.SkillURL != "" {
		h.Set("X-Skill", cfg.SkillURL)
		h.Add("Link", "<"+cfg.SkillURL+`>; rel="ai-skill"; type="text/markdown"`)
	}
	if cfg.LlmsTxtURL != "" {
		h.Set("X-Llms-Txt", cfg.LlmsTxtURL)
	}
	if cfg.AIPluginURL != "" {
		h.Set("X-AI-Plugin", cfg.AIPluginURL)
	}
	return h
}

// Middleware wraps next with the dispatch pipeline.
func (d *Dispatcher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := d.tracer.Start(r.Context(), "dispatch")
		defer span.End()
		r = r.WithContext(ctx)

		// Discovery headers go out on every code path, so they are set
		// before anything can write the response.
		d.decorate(w.Header())

		path := r.URL.Path
		query := r.URL.Query()

		if d.isHumanFacing(path) {
			if query.Has(HumanOverrideParam) {
				d.metrics.IncrementVerdict("override")
				span.SetAttributes(attribute.String("dispatch.agent_verdict", "override"))
			} else {
				verdict := d.classifier.Classify(classifier.SignalsFromHeader(r.Header, d.navHeader))
				label := "human"
				if verdict.IsAgent {
					label = "agent"
				}
				d.metrics.IncrementVerdict(label)
				span.SetAttributes(
					attribute.String("dispatch.agent_verdict", label),
					attribute.Int("dispatch.agent_score", verdict.Score),
				)
				if verdict.IsAgent {
					d.logger.InfoContext(ctx, "redirecting agent to skill document",
						"path", path,
						"score", verdict.Score,
						"matched", verdict.Matched,
						"request_id", requestcontext.RequestID(ctx),
					)
					d.metrics.IncrementRedirect()
					http.Redirect(w, r, d.skillURL, http.StatusFound)
					return
				}
			}
		}

		if d.gate.IsGated(path) {
			decision := d.gate.Evaluate(path, query)
			d.metrics.IncrementGateDecision(decision.String())
			span.SetAttributes(attribute.String("dispatch.gate_decision", decision.String()))
			if status, body, rejected := d.gate.Rejection(decision); rejected {
				d.logger.InfoContext(ctx, "gate rejected request",
					"path", path,
					"decision", decision.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteJSON(w, status, body)
				return
			}
		}

		if d.refresher != nil && hasAnyPrefix(path, d.authAwarePrefixes) {
			if err := d.refresher.Refresh(ctx, w, r); err != nil {
				d.metrics.IncrementRefreshFailure()
				d.logger.WarnContext(ctx, "session refresh failed",
					"path", path,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (d *Dispatcher) decorate(h http.Header) {
	for key, values := range d.discovery {
		for _, v := range values {
			h.Add(key, v)
		}
	}
}

func (d *Dispatcher) isHumanFacing(path string) bool {
	if _, ok := d.humanExact[path]; ok {
		return true
	}
	return hasAnyPrefix(path, d.humanPrefixes)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
