// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appsettings_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "appsettings_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appsettings_http_response_size_bytes",
		Help:    "HTTP response sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path", "status"})

	httpRateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appsettings_http_rate_limited_total",
		Help: "Write requests rejected by the rate limiter",
	}, []string{"method"})
)

// HTTPInFlight adjusts the in-flight gauge by delta.
func HTTPInFlight(delta float64) { httpRequestsInFlight.Add(delta) }

// ObserveHTTPRequest records one served request. path must be a route pattern.
func ObserveHTTPRequest(method, path, status string, seconds float64, bytes int) {
	httpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
	httpResponseSize.WithLabelValues(method, path, status).Observe(float64(bytes))
}

// IncHTTPRateLimited records a 429 emitted by the limiter. The limiter runs
// before routing, so only the method is known.
func IncHTTPRateLimited(method string) { httpRateLimitedTotal.WithLabelValues(method).Inc() }
