// Package metrics holds the console's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pod_console_upstream_requests_total",
		Help: "Upstream API requests by endpoint and status code",
	}, []string{"endpoint", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pod_console_upstream_request_duration_seconds",
		Help:    "Upstream API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	tokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pod_console_token_refresh_total",
		Help: "Upstream token refresh attempts by result",
	}, []string{"result"})

	bulkItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pod_console_bulk_items_total",
		Help: "Items processed by bulk operations by operation and result",
	}, []string{"operation", "result"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pod_console_active_sessions",
		Help: "Admin sessions with a running token refresher",
	})

	sseClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pod_console_sse_clients",
		Help: "Connected pod event stream clients",
	})
)

// ObserveUpstream records one upstream round trip. status 0 means the request
// never got a response.
func ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func TokenRefresh(ok bool) {
	tokenRefreshes.WithLabelValues(result(ok)).Inc()
}

func BulkItem(operation string, ok bool) {
	bulkItems.WithLabelValues(operation, result(ok)).Inc()
}

func SessionStarted() { activeSessions.Inc() }
func SessionEnded()   { activeSessions.Dec() }

func SSEConnected()    { sseClients.Inc() }
func SSEDisconnected() { sseClients.Dec() }

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
