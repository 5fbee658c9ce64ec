package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(opts ...Option) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New("accesslog", append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "accesslog", b.Name())
	assert.True(t, b.Allow())
}

func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		successes    int
		opts         []Option
		expectedOpen bool
	}{
		{name: "below failure threshold stays closed", failures: 2, opts: []Option{WithFailureThreshold(3)}},
		{name: "reaching failure threshold opens", failures: 3, opts: []Option{WithFailureThreshold(3)}, expectedOpen: true},
		{name: "one success closes by default", failures: 1, successes: 1, opts: []Option{WithFailureThreshold(1)}},
		{
			name:         "too few successes keep it open",
			failures:     1,
			successes:    1,
			opts:         []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			expectedOpen: true,
		},
		{
			name:      "enough successes close it",
			failures:  1,
			successes: 2,
			opts:      []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(tt.opts...)
			for range tt.failures {
				b.RecordFailure()
			}
			for range tt.successes {
				b.RecordSuccess()
			}
			assert.Equal(t, tt.expectedOpen, b.IsOpen())
		})
	}
}

func TestBreaker_ReportsStateChangesOnce(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(2))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.Equal(t, StateChange{}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.Equal(t, StateChange{Opened: true}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback, "still open")
	assert.Equal(t, StateChange{}, change, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.Equal(t, StateChange{Closed: true}, change)
}

func TestBreaker_SuccessClearsFailureRun(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.False(t, b.IsOpen(), "failures must be consecutive")
}

func TestBreaker_FailureClearsSuccessRun(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordSuccess()
	assert.True(t, b.IsOpen(), "successes must be consecutive")
}

func TestBreaker_AllowWaitsForCooldown(t *testing.T) {
	b, clock := newTestBreaker(WithFailureThreshold(1), WithCooldown(10*time.Second))

	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.False(t, b.Allow())

	clock.Advance(9 * time.Second)
	assert.False(t, b.Allow())

	clock.Advance(time.Second)
	assert.True(t, b.Allow(), "trial call allowed once cooldown elapsed")

	b.RecordFailure()
	assert.False(t, b.Allow(), "failed trial call restarts the cooldown")
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}

func TestBreaker_ConcurrentUse(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(1000))

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			for range 10 {
				b.RecordFailure()
				b.Allow()
			}
		})
	}
	wg.Wait()
	assert.False(t, b.IsOpen(), "500 failures stay under the threshold")
}
