package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(buf *bytes.Buffer) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(Logger(logger))
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/verify-token/{token}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func TestLogger_RecordsRouteAndBytes(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/abc", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	line := buf.String()
	assert.Contains(t, line, "level=INFO")
	assert.Contains(t, line, "path=/things/abc")
	assert.Contains(t, line, "route=/things/{id}")
	assert.Contains(t, line, "status=200")
	assert.Contains(t, line, "bytes=5")
	assert.Contains(t, line, "request_id=")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		path  string
		level string
	}{
		{"/boom", "level=ERROR"},
		{"/missing", "level=WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			r := newRouter(&buf)

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Contains(t, buf.String(), tt.level)
		})
	}
}

func TestLogger_NeverLogsAccessToken(t *testing.T) {
	const secret = "0e2dcb9d-3842-4a31-b5f0-e0a59dde8a6f"

	var buf bytes.Buffer
	r := newRouter(&buf)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/verify-token/"+secret, nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	line := buf.String()
	assert.NotContains(t, line, secret)
	assert.Contains(t, line, "path=/api/verify-token/{token}")
	assert.Contains(t, line, "route=/api/verify-token/{token}")
}
