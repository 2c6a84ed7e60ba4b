package middleware

import (
	"carhub/pkg/metrics"
	"net/http"
	"time"
)

// Metrics records request counts and latency per service and method.
func Metrics(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			metrics.ObserveHTTP(service, r.Method, wrapped.statusCode, time.Since(start))
		})
	}
}
