// Package requesttime pins one "now" per HTTP request so session expiry,
// access log timestamps and analytics windows agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"dailybit/pkg/requestcontext"
)

// Middleware stores the wall clock at request start in the context.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
