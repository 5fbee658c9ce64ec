package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for request dispatch.
type Metrics struct {
	// Classifier verdicts on human-facing paths
	Verdicts *prometheus.CounterVec

	// Gate decisions on gated paths
	GateDecisions *prometheus.CounterVec

	// Agents redirected to the skill document
	Redirects prometheus.Counter

	// Session refresh failures on auth-aware paths
	RefreshFailures prometheus.Counter
}

// New registers the dispatch metrics with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailybit_dispatch_verdicts_total",
			Help: "Classifier verdicts for human-facing requests",
		}, []string{"verdict"}), // verdict: "agent", "human", "override"

		GateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailybit_dispatch_gate_decisions_total",
			Help: "Skill gate decisions by outcome",
		}, []string{"decision"}),

		Redirects: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailybit_dispatch_agent_redirects_total",
			Help: "Agent requests redirected to the skill document",
		}),

		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailybit_dispatch_session_refresh_failures_total",
			Help: "Session refresh attempts that returned an error",
		}),
	}
}

// IncrementVerdict records one classifier outcome.
func (m *Metrics) IncrementVerdict(verdict string) {
	if m != nil {
		m.Verdicts.WithLabelValues(verdict).Inc()
	}
}

// IncrementGateDecision records one gate outcome.
func (m *Metrics) IncrementGateDecision(decision string) {
	if m != nil {
		m.GateDecisions.WithLabelValues(decision).Inc()
	}
}

// IncrementRedirect records one agent redirect.
func (m *Metrics) IncrementRedirect() {
	if m != nil {
		m.Redirects.Inc()
	}
}

// IncrementRefreshFailure records one failed session refresh.
func (m *Metrics) IncrementRefreshFailure() {
	if m != nil {
		m.RefreshFailures.Inc()
	}
}
