package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// RejectedMessage is the error text of a 429 response.
const RejectedMessage = "Rate limit exceeded. Please wait before generating more content."

// KeyFunc extracts the caller key from a request. ok is false when the
// request carries no identity; such requests pass through unchecked and
// are left to authentication.
type KeyFunc func(r *http.Request) (key string, ok bool)

type rejectedBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

// Middleware gates next with l. Rejected requests get 429 with a
// Retry-After header and a JSON body carrying the same delay.
func Middleware(l *Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k, ok := key(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			d := l.Admit(r.Context(), k)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rejectedBody{Error: RejectedMessage, RetryAfter: d.RetryAfter})
		})
	}
}
