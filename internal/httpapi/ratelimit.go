package httpapi

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
)

// rateLimit returns a per-client tollbooth limiter, or nil when rps <= 0.
func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetBurst(burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpErr := tollbooth.LimitByRequest(lmt, w, r); httpErr != nil {
				writeErr(w, httpErr.StatusCode, httpErr.Message, "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
