// Package metrics exposes Prometheus metrics for the API and the catalog.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

const namespace = "assessment_recommender"

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Metrics holds the service collectors. Each instance owns its registry, so tests
// can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	CatalogSize     prometheus.Gauge

	RecommendationsTotal *prometheus.CounterVec
	RecommendedItems     prometheus.Histogram
}

var _ catalog.RefreshObserver = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),

		RefreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refreshes_total",
			Help:      "Catalog refresh attempts by result.",
		}, []string{"result"}),

		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_duration_seconds",
			Help:      "Time spent rebuilding the catalog.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		CatalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_assessments",
			Help:      "Number of assessments in the last successfully refreshed catalog.",
		}),

		RecommendationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation requests by result.",
		}, []string{"result"}),

		RecommendedItems: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommended_assessments",
			Help:      "Number of assessments returned per recommendation.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		}),
	}
}

func (m *Metrics) ObserveRefresh(err error, size int, duration time.Duration) {
	m.RefreshDuration.Observe(duration.Seconds())
	if err != nil {
		m.RefreshesTotal.WithLabelValues(resultError).Inc()
		return
	}
	m.RefreshesTotal.WithLabelValues(resultSuccess).Inc()
	m.CatalogSize.Set(float64(size))
}

func (m *Metrics) ObserveRecommendation(err error, count int) {
	if err != nil {
		m.RecommendationsTotal.WithLabelValues(resultError).Inc()
		return
	}
	m.RecommendationsTotal.WithLabelValues(resultSuccess).Inc()
	m.RecommendedItems.Observe(float64(count))
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
