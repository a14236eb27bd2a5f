// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otayori_messages_submitted_total",
		Help: "Total student messages stored",
	})

	ThemesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otayori_themes_created_total",
		Help: "Total themes created by staff",
	})

	TokenRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otayori_token_rotations_total",
		Help: "Total access token rotations",
	})

	TokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otayori_token_verifications_total",
		Help: "Access token verifications by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "otayori_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveVerification counts one token check.
func ObserveVerification(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	TokenVerifications.WithLabelValues(result).Inc()
}

// ObserveRequest records one finished HTTP request. route is the matched
// chi pattern; unmatched requests are grouped under "unmatched" so raw paths
// (which embed ids and tokens) never become label values.
func ObserveRequest(method, route string, status int, duration time.Duration) {
	label := strings.TrimSpace(route)
	if label == "" {
		label = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, label, strconv.Itoa(status)).Observe(duration.Seconds())
}
