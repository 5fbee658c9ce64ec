// Package accesslog records one append-only row per completed agent request.
//
// Logging is fire-and-forget: Log snapshots the request and hands it to a
// bounded queue without blocking, and a background worker resolves the token
// owner and writes to the record store. Nothing that happens after the
// hand-off can change the response already sent to the caller.
package accesslog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"dailybit/internal/accesslog/metrics"
	"dailybit/internal/accesslog/models"
	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/circuit"
	"dailybit/pkg/requestcontext"
)

const (
	defaultBufferSize   = 1024
	defaultWriteTimeout = 5 * time.Second
)

// Store persists access log records.
type Store interface {
	Append(ctx context.Context, rec models.Record) error
}

// OwnerResolver maps a bearer token to the account that owns it.
type OwnerResolver interface {
	Resolve(ctx context.Context, token string) (id.AccountID, bool)
}

type entry struct {
	// ctx keeps request-scoped values for log correlation; it never cancels.
	ctx  context.Context
	snap models.Snapshot
}

// Logger is the asynchronous access logger. Create it with New and stop it
// with Close.
type Logger struct {
	store        Store
	resolver     OwnerResolver
	logger       *slog.Logger
	metrics      *metrics.Metrics
	breaker      *circuit.Breaker
	bufferSize   int
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan entry
	done   chan struct{}
	once   sync.Once
}

// Option configures the Logger.
type Option func(*Logger)

// WithResolver enables token owner resolution for records logged without an
// explicit owner.
func WithResolver(r OwnerResolver) Option {
	return func(l *Logger) {
		l.resolver = r
	}
}

// WithLogger sets the structured logger used for failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Logger) {
		l.metrics = m
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(l *Logger) {
		l.breaker = b
	}
}

// WithBufferSize sets the queue capacity.
func WithBufferSize(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.bufferSize = n
		}
	}
}

// WithWriteTimeout bounds each store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.writeTimeout = d
		}
	}
}

// New creates a Logger and starts its background worker.
func New(store Store, opts ...Option) (*Logger, error) {
	if store == nil {
		return nil, errors.New("access log store is required")
	}
	l := &Logger{
		store:        store,
		logger:       slog.Default(),
		bufferSize:   defaultBufferSize,
		writeTimeout: defaultWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.breaker == nil {
		l.breaker = circuit.New("accesslog")
	}
	l.queue = make(chan entry, l.bufferSize)

	go l.run()
	return l, nil
}

// Log records a completed request. endpoint defaults to the request path.
// owner may be nil; the worker then resolves it from the token parameter.
// Log never blocks and never fails: when the queue is full or the logger
// is closed the record is dropped.
func (l *Logger) Log(r *http.Request, endpoint string, status int, owner *id.AccountID) {
	if l == nil || r == nil {
		return
	}
	ctx := r.Context()
	if endpoint == "" {
		endpoint = r.URL.Path
	}
	e := entry{
		ctx: context.WithoutCancel(ctx),
		snap: models.Snapshot{
			Endpoint:  endpoint,
			Method:    r.Method,
			UserAgent: r.UserAgent(),
			Query:     r.URL.Query(),
			Status:    status,
			Owner:     owner,
			At:        requestcontext.Now(ctx),
		},
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.metrics.IncBufferDropped()
		return
	}
	select {
	case l.queue <- e:
		l.metrics.SetQueueDepth(len(l.queue))
	default:
		l.metrics.IncBufferDropped()
		l.logger.DebugContext(ctx, "access log queue full, dropping record", "endpoint", endpoint)
	}
}

// Close stops accepting records and waits for the queue to drain or ctx to
// end, whichever comes first.
func (l *Logger) Close(ctx context.Context) error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
	})
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("access log drain: %w", ctx.Err())
	}
}

func (l *Logger) run() {
	defer close(l.done)
	for e := range l.queue {
		l.metrics.SetQueueDepth(len(l.queue))
		l.persist(e)
	}
}

func (l *Logger) persist(e entry) {
	defer func() {
		if p := recover(); p != nil {
			l.metrics.IncPersistFailures()
			l.logger.DebugContext(e.ctx, "access log write panicked",
				"endpoint", e.snap.Endpoint,
				"panic", fmt.Sprint(p),
			)
		}
	}()

	if !l.breaker.Allow() {
		l.metrics.IncCircuitBreakerDropped()
		return
	}

	ctx, cancel := context.WithTimeout(e.ctx, l.writeTimeout)
	defer cancel()

	rec := models.NewRecord(e.snap, l.resolveOwner(ctx, e.snap))
	if err := l.store.Append(ctx, rec); err != nil {
		l.metrics.IncPersistFailures()
		_, change := l.breaker.RecordFailure()
		if change.Opened {
			l.metrics.SetCircuitBreakerState(true)
			l.logger.WarnContext(ctx, "access log circuit opened", "breaker", l.breaker.Name())
		}
		l.logger.DebugContext(ctx, "access log write failed",
			"endpoint", rec.Endpoint,
			"error", err,
		)
		return
	}

	if _, change := l.breaker.RecordSuccess(); change.Closed {
		l.metrics.SetCircuitBreakerState(false)
		l.logger.InfoContext(ctx, "access log circuit closed", "breaker", l.breaker.Name())
	}
	l.metrics.IncWritten()
}

func (l *Logger) resolveOwner(ctx context.Context, s models.Snapshot) *id.AccountID {
	if s.Owner != nil || l.resolver == nil {
		return s.Owner
	}
	token := s.Token()
	if token == "" {
		return nil
	}
	if accountID, ok := l.resolver.Resolve(ctx, token); ok {
		return &accountID
	}
	return nil
}
