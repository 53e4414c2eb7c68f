// Package metrics exposes herd's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "herd"

// Metrics holds every collector of the service. It implements password.Observer and
// records.SearchObserver.
type Metrics struct {
	reg *prometheus.Registry

	VerifyTotal    *prometheus.CounterVec
	SearchTotal    *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	SearchFilters  prometheus.Histogram
	HTTPRequests   *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		VerifyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_verifications_total",
			Help:      "Password verifications by outcome (match, mismatch, invalid).",
		}, []string{"result"}),
		SearchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_searches_total",
			Help:      "Record searches by outcome (ok, unavailable, error).",
		}, []string{"result"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_search_duration_seconds",
			Help:      "Time spent executing record searches against the store.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		SearchFilters: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_search_predicates",
			Help:      "Number of predicates per record search.",
			Buckets:   prometheus.LinearBuckets(0, 1, 7),
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status class.",
		}, []string{"method", "class"}),
	}
}

// ObserveVerify counts one password verification.
func (m *Metrics) ObserveVerify(result string) {
	m.VerifyTotal.WithLabelValues(result).Inc()
}

// ObserveSearch records one record search.
func (m *Metrics) ObserveSearch(result string, predicates int, elapsed time.Duration) {
	m.SearchTotal.WithLabelValues(result).Inc()
	m.SearchDuration.Observe(elapsed.Seconds())
	m.SearchFilters.Observe(float64(predicates))
}

// ObserveRequest counts one served HTTP request. Methods outside the standard set are
// counted as "other" and statuses are folded into classes so clients cannot mint series.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.HTTPRequests.WithLabelValues(methodLabel(method), statusClass(status)).Inc()
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return "other"
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
