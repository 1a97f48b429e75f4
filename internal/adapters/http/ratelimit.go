package httpadapter

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// rateLimiter sheds load before it reaches the retrieval pipeline. One
// shared token bucket; a zero rps disables limiting.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(rps, burst int) *rateLimiter {
	if rps <= 0 {
		return &rateLimiter{}
	}
	if burst <= 0 {
		burst = rps
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	if rl == nil || rl.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
