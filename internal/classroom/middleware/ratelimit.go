package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"classroom/internal/classroom"
	"classroom/internal/classroom/respond"
	"classroom/internal/domain"
	"classroom/internal/platform/telemetry"
)

// RateLimit returns middleware enforcing a per-client fixed-window request
// limit. Every response carries the draft standard RateLimit-* headers
// (legacy X-RateLimit variants are not emitted); exceeding the limit yields a
// RateLimitError at 429. The window is used only for the client-facing
// message; the limiter owns the actual accounting.
// The metrics parameter is optional.
func RateLimit(limiter classroom.RateLimiter, window time.Duration, m *telemetry.Metrics) Middleware {
	minutes := int(window / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.Allow(clientIP(r))

			w.Header().Set("RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("RateLimit-Reset", strconv.Itoa(result.ResetAfter))

			if !result.Allowed {
				if m != nil {
					m.RecordRateLimitDecision(r.Context(), "denied")
				}
				w.Header().Set("Retry-After", strconv.Itoa(result.ResetAfter))
				respond.Error(w, domain.New(domain.KindRateLimit,
					fmt.Sprintf("Too many requests, please wait %d minute(s) before trying again", minutes)))
				return
			}

			if m != nil {
				m.RecordRateLimitDecision(r.Context(), "allowed")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// Use RemoteAddr directly. X-Forwarded-For is client-controlled and
	// must not be trusted without a validated trusted proxy list.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
