package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"onboarding-gateway/internal/common/logging"
)

// ClientIP extracts the caller's address from proxy headers, preferring
// X-Forwarded-For (first address of a comma-separated chain), then
// X-Real-IP, then the Cloudflare connecting-IP header. Returns "unknown"
// when no header is present.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if cfIP := r.Header.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}

	return "unknown"
}

// Middleware gates a route at maxRequests per window per client IP.
// Rejected requests get a 429 with Retry-After guidance and the standard
// rate-limit headers. Store failures fail open.
func Middleware(limiter *Limiter, maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			result, err := limiter.Check(r.Context(), ip, maxRequests, window)
			if err != nil {
				logging.Warn("rate limit check failed, allowing request",
					logging.Field{Key: "identifier", Value: ip},
					logging.Field{Key: "error", Value: err.Error()},
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				retryAfter := int(time.Until(result.ResetAt).Seconds() + 0.999)
				if retryAfter < 0 {
					retryAfter = 0
				}

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
				w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))
				w.WriteHeader(http.StatusTooManyRequests)

				json.NewEncoder(w).Encode(map[string]interface{}{
					"ok":         false,
					"error":      "Too many requests. Please try again later.",
					"retryAfter": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
