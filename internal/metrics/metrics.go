package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "goldlive"

var statuses = []string{"connecting", "live", "stable", "offline"}

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetches_total",
			Help:      "Upstream fetches by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream fetches.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 9), // 50ms to ~13s
		},
		[]string{"source"},
	)

	status = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_status",
			Help:      "1 for the current connection status, 0 for the others.",
		},
		[]string{"status"},
	)

	rate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate",
			Help:      "Latest displayed value per item.",
		},
		[]string{"item"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Telegram messages by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		fetches,
		fetchDuration,
		status,
		rate,
		httpRequests,
		httpDuration,
		notifications,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "failure"
}

// ObserveFetch matches sources.Observer.
func ObserveFetch(source string, took time.Duration, err error) {
	fetches.WithLabelValues(source, outcome(err)).Inc()
	fetchDuration.WithLabelValues(source).Observe(took.Seconds())
}

func SetStatus(current string) {
	for _, s := range statuses {
		v := 0.0
		if s == current {
			v = 1
		}
		status.WithLabelValues(s).Set(v)
	}
}

func SetRate(item string, v float64) {
	rate.WithLabelValues(item).Set(v)
}

func ClearRate(item string) {
	rate.DeleteLabelValues(item)
}

func ObserveHTTP(method, path string, code int, took time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(took.Seconds())
}

func ObserveNotification(kind string, err error) {
	notifications.WithLabelValues(kind, outcome(err)).Inc()
}
