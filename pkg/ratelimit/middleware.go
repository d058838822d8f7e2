package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/streamvault/streamvault/pkg/clientip"
	"github.com/streamvault/streamvault/pkg/logger"
	"github.com/streamvault/streamvault/pkg/response"
)

// KeyFunc derives the limiter key from a request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys limits on the resolved client address. Requests whose IP
// cannot be determined share one bucket.
func ByClientIP(r *http.Request) string {
	ip := clientip.FromRequest(r)
	if ip == "" {
		return "unknown"
	}
	return ip
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. Limiter failures fail open: rate limiting protects capacity, it
// must not take the endpoint down with it.
func Middleware(limiter Limiter, keyFunc KeyFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = ByClientIP
	}
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := limiter.Allow(r.Context(), keyFunc(r))
			if err != nil {
				log.ErrorContext(r.Context(), "rate limiter unavailable", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.Allowed {
				retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				response.Error(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
