package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/labelstack/hub/internal/api/response"
)

// RateLimit returns middleware enforcing a token-bucket limit across all
// requests. Bulk ingestion is write-heavy; the limiter sheds load before the
// database sees it. Requests over the limit get 429 without queueing.
func RateLimit(rps, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				response.RespondError(w, http.StatusTooManyRequests,
					"Too Many Requests", "rate limit exceeded, retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
