// Package metrics holds the Prometheus collectors for purchases and HTTP
// traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Purchase kinds used as the "kind" label.
const (
	KindSingle = "single"
	KindCart   = "cart"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	purchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_store",
			Subsystem: "purchase",
			Name:      "attempts_total",
			Help:      "Purchase attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	purchaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "game_store",
			Subsystem: "purchase",
			Name:      "duration_seconds",
			Help:      "Duration of purchase transactions.",
			Buckets:   prometheus.ExponentialBuckets(0.002, 2, 10),
		},
		[]string{"kind"},
	)

	libraryEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "game_store",
			Subsystem: "library",
			Name:      "entries_created_total",
			Help:      "Library entries created by purchases.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_store",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(
		purchases,
		purchaseDuration,
		libraryEntries,
		httpRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordPurchase counts one purchase attempt.  outcome is "fulfilled" or
// the lowercase rejection code; created is the number of library entries
// written.
func RecordPurchase(kind, outcome string, created int, elapsed time.Duration) {
	purchases.WithLabelValues(kind, outcome).Inc()
	purchaseDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if created > 0 {
		libraryEntries.Add(float64(created))
	}
}

// RecordHTTPRequest counts one handled request.  path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
