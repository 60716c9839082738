// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

// OTelHTTP wraps the handler with OpenTelemetry HTTP instrumentation and
// propagates incoming trace context.
func OTelHTTP(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(
			next,
			serviceName,
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithPropagators(otel.GetTextMapPropagator()),
			otelhttp.WithFilter(shouldTrace),
			otelhttp.WithSpanNameFormatter(spanNameFormatter),
		)
	}
}

// shouldTrace skips probes and scrapes.
func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return false
	}
	return true
}

var spanRoutes = []string{
	"/api/v1/groups/",
	"/api/v1/values/",
	"/api/v1/reset/",
}

// spanNameFormatter names spans "{METHOD} {ROUTE}". Setting paths are folded
// into a wildcard because the span runs before routing.
func spanNameFormatter(_ string, r *http.Request) string {
	path := r.URL.Path
	for _, prefix := range spanRoutes {
		if strings.HasPrefix(path, prefix) {
			path = prefix + "*"
			break
		}
	}
	return r.Method + " " + path
}
