// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/metrics"
	"github.com/go-chi/httprate"
)

// WriteLimit caps mutating requests at rpm per client IP over a sliding
// minute. Reads are never limited.
func WriteLimit(rpm int) func(http.Handler) http.Handler {
	return writeLimit(rpm, time.Minute, httprate.KeyByIP)
}

func writeLimit(limit int, window time.Duration, key httprate.KeyFunc) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(max(1, int(window.Seconds())))
	limiter := httprate.NewRateLimiter(limit, window,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.IncHTTPRateLimited(r.Method)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":     "rate_limited",
				"detail":    "too many setting updates, retry after " + retryAfter + "s",
				"requestId": log.RequestIDFromContext(r.Context()),
			})
		}),
	)
	return func(next http.Handler) http.Handler {
		limited := limiter.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				limited.ServeHTTP(w, r)
			}
		})
	}
}
