package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acphealth_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acphealth_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	outboxEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acphealth_outbox_events_published_total",
		Help: "Count of outbox events relayed to the event bus",
	}, []string{"module", "result"})
)

// ObserveHTTPRequest records one served HTTP request.
// Path should be the route pattern, not the raw URL, to keep cardinality bounded.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveOutboxPublish records one relay attempt for the given module.
func ObserveOutboxPublish(module, result string) {
	outboxEventsPublished.WithLabelValues(module, result).Inc()
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
