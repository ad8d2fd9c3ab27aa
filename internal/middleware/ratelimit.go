package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"ledger-service/internal/pkg/cache"
	"ledger-service/internal/pkg/response"
)

// RateLimit is a fixed-window limiter keyed by client IP, counted in
// redis so the limit holds across replicas.
func RateLimit(c *cache.Cache, limit int64, window time.Duration, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			count, err := c.IncrWithExpire(r.Context(), "ratelimit:"+scope, ip, window)
			if err != nil {
				// redis being down should not take requests with it
				next.ServeHTTP(w, r)
				return
			}
			if count > limit {
				if ttl, err := c.GetTTL(r.Context(), "ratelimit:"+scope, ip); err == nil && ttl > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
				}
				response.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
