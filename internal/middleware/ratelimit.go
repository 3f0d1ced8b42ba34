package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/quoteforge/quote-mint/pkg/metrics"
)

// GlobalRateLimit creates coarse IP-keyed rate limiting for the whole API.
// The per-identifier fixed-window limiter guarding quote generation lives
// in internal/ratelimit; this middleware only blunts bulk abuse.
func GlobalRateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if wallet := GetWalletAddress(r.Context()); wallet != "" {
				return "wallet:" + wallet, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitRejection("global")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","retry_after":60}`))
		}),
	)
}
