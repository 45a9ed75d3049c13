package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the storefront collectors.
const (
	OutcomeSuccess    = "success"
	OutcomeEmpty      = "empty"
	OutcomeFailure    = "failure"
	OutcomeSuperseded = "superseded"
	OutcomeRejected   = "rejected"
)

// StorefrontMetrics records catalog queries, detail loads and add-to-cart outcomes.
type StorefrontMetrics struct {
	queryDuration *prometheus.HistogramVec
	queries       *prometheus.CounterVec
	detailLoads   *prometheus.CounterVec
	cartAdds      *prometheus.CounterVec
	activeViews   prometheus.Gauge
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_query_duration_seconds",
		Help:    "Duration of upstream catalog searches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_queries_total",
		Help: "Catalog searches by outcome.",
	}, []string{"outcome"})
	detailLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_detail_loads_total",
		Help: "Product detail loads by outcome.",
	}, []string{"outcome"})
	cartAdds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_add_attempts_total",
		Help: "Add-to-cart attempts by outcome.",
	}, []string{"outcome"})
	activeViews := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_active_views",
		Help: "Open storefront views.",
	})
	reg.MustRegister(queryDuration, queries, detailLoads, cartAdds, activeViews)
	return &StorefrontMetrics{
		queryDuration: queryDuration,
		queries:       queries,
		detailLoads:   detailLoads,
		cartAdds:      cartAdds,
		activeViews:   activeViews,
	}
}

// ObserveQuery records one catalog search.
func (m *StorefrontMetrics) ObserveQuery(outcome string, duration time.Duration) {
	if m == nil || m.queries == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncDetailLoad records one product detail load.
func (m *StorefrontMetrics) IncDetailLoad(outcome string) {
	if m == nil || m.detailLoads == nil {
		return
	}
	m.detailLoads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCartAdd records one add-to-cart attempt.
func (m *StorefrontMetrics) IncCartAdd(outcome string) {
	if m == nil || m.cartAdds == nil {
		return
	}
	m.cartAdds.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetActiveViews reports the number of open views.
func (m *StorefrontMetrics) SetActiveViews(n int) {
	if m == nil || m.activeViews == nil {
		return
	}
	m.activeViews.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
