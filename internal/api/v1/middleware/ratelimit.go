package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/pkg/httpext"
	"github.com/deepgram/courier/pkg/logger"
	"github.com/deepgram/courier/pkg/ratelimit"
)

// RateLimit limits callers by client address. Each call builds its own
// limiter, so routes sharing a limitKey should share the returned middleware.
func RateLimit(cfg config.RateLimitConfig, limitKey string) func(http.Handler) http.Handler {
	limiter := ratelimit.NewLimiter(cfg.Window, cfg.MaxHits)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			client := clientAddr(r)
			if !limiter.Allow(client) {
				wait := limiter.RetryAfter(client)
				logger.Warn(logger.MIDDLEWARE, "Rate limit exceeded for %s on %s, retry in %s", client, limitKey, wait)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				httpext.JsonError(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr is the first X-Forwarded-For hop, or the remote host without
// its port so reconnects from a new source port share a bucket.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
