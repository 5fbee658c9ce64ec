package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for access log persistence.
type Metrics struct {
	Written               prometheus.Counter
	BufferDropped         prometheus.Counter
	CircuitBreakerDropped prometheus.Counter
	PersistFailures       prometheus.Counter
	CircuitBreakerState   prometheus.Gauge
	QueueDepth            prometheus.Gauge
}

// New registers the access log metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Written: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailybit_accesslog_written_total",
			Help: "Access log records persisted to the record store",
		}),
		BufferDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailybit_accesslog_buffer_dropped_total",
			Help: "Access log records dropped because the queue was full",
		}),
		CircuitBreakerDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailybit_accesslog_circuit_breaker_dropped_total",
			Help: "Access log records dropped while the circuit breaker was open",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailybit_accesslog_persist_failures_total",
			Help: "Access log writes that failed or panicked",
		}),
		CircuitBreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dailybit_accesslog_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dailybit_accesslog_queue_depth",
			Help: "Records waiting for the background writer",
		}),
	}
}

func (m *Metrics) IncWritten() {
	if m != nil {
		m.Written.Inc()
	}
}

func (m *Metrics) IncBufferDropped() {
	if m != nil {
		m.BufferDropped.Inc()
	}
}

func (m *Metrics) IncCircuitBreakerDropped() {
	if m != nil {
		m.CircuitBreakerDropped.Inc()
	}
}

func (m *Metrics) IncPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

// SetCircuitBreakerState sets the circuit breaker state gauge.
func (m *Metrics) SetCircuitBreakerState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
