// Package middleware contains the HTTP middleware the router mounts on
// every request.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/otayori/internal/metrics"
)

// responseWriter records the status code and byte count that
// http.ResponseWriter does not expose.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// secretParams are route parameters whose values must never be logged.
var secretParams = map[string]bool{"token": true}

// loggedPath returns the request path, or the route pattern when the path
// carries a secret route parameter.
func loggedPath(r *http.Request, rctx *chi.Context) string {
	if rctx == nil {
		return r.URL.Path
	}
	for _, key := range rctx.URLParams.Keys {
		if secretParams[key] {
			return rctx.RoutePattern()
		}
	}
	return r.URL.Path
}

// Logger logs one line per request and records its latency under the
// matched chi route pattern.
//
// 5xx responses log at Error, 4xx at Warn, everything else at Info.
// The metric label is the pattern ("/api/staff/themes/{id}") so ids never
// become label values. A path holding an access token is logged as its
// pattern ("/api/verify-token/{token}").
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			rctx := chi.RouteContext(r.Context())
			route := ""
			if rctx != nil {
				route = rctx.RoutePattern()
			}
			metrics.ObserveRequest(r.Method, route, wrapped.statusCode, duration)

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", loggedPath(r, rctx)),
				slog.String("route", route),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", duration),
				slog.Int64("bytes", wrapped.written),
			)
		})
	}
}
