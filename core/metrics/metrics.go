package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aulasec_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aulasec_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aulasec_push_deliveries_total",
			Help: "Websocket push attempts by outcome.",
		},
		[]string{"result"},
	)

	liveSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aulasec_live_sessions",
			Help: "Registered websocket sessions by role.",
		},
		[]string{"role"},
	)
)

// Init registers the service metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, deliveriesTotal, liveSessions)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// RecordDelivery counts one push attempt; result is "ok" or "failed".
func RecordDelivery(result string) {
	deliveriesTotal.WithLabelValues(result).Inc()
}

// SetLiveSessions replaces the per-role session gauge with a fresh count.
func SetLiveSessions(byRole map[string]int) {
	liveSessions.Reset()
	for role, n := range byRole {
		liveSessions.WithLabelValues(role).Set(float64(n))
	}
}
