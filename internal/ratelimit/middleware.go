package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/redmonkez12/mybucks/internal/httputil"
	"github.com/redmonkez12/mybucks/internal/logging"
)

// Middleware limits requests per client IP. Redis errors let the request through.
// Run it after chi's RealIP so RemoteAddr holds the client address.
func (l *Limiter) Middleware(rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.GetLoggerFromContext(r.Context())
			ip := clientIP(r)

			d, err := l.Allow(r.Context(), rule, ip)
			if err != nil {
				logger.Error("rate limit check failed, allowing request", "rule", rule.Name, "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				retryAfter := int(math.Ceil(d.ResetAt.Sub(l.now()).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
				logger.Warn("rate limit exceeded", "rule", rule.Name, "ip", ip)
				httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
