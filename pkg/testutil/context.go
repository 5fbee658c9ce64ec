package testutil

import (
	"net/http"

	id "dailybit/pkg/domain"
	"dailybit/pkg/requestcontext"
)

// HeaderTestAccount opts a request into AsAccount's injected identity.
const HeaderTestAccount = "X-Test-Account"

// WithAccount returns req carrying accountID, as the session middleware
// would set it for a signed-in user.
func WithAccount(req *http.Request, accountID id.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithAccountID(req.Context(), accountID))
}

// AsAccount stands in for the session middleware in handler tests: requests
// carrying HeaderTestAccount are signed in as accountID, others stay
// anonymous.
func AsAccount(accountID id.AccountID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(HeaderTestAccount) != "" {
				r = WithAccount(r, accountID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
