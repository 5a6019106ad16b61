// Package metrics holds the Prometheus collectors of the storefront API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
	CatalogRefresh  *prometheus.CounterVec
	StaleDiscards   *prometheus.CounterVec
	CartMutations   *prometheus.CounterVec
	OrdersPlaced    prometheus.Counter
	CatalogProducts prometheus.Gauge
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		CatalogRefresh: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_catalog_fetch_total",
				Help: "Catalog fetches by collection and result",
			},
			[]string{"collection", "result"},
		),
		StaleDiscards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_catalog_stale_responses_total",
				Help: "Fetch responses discarded because a newer one was already committed",
			},
			[]string{"collection"},
		),
		CartMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cart_mutations_total",
				Help: "Cart commands by operation and result",
			},
			[]string{"operation", "result"},
		),
		OrdersPlaced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "storefront_orders_placed_total",
				Help: "Orders accepted by the backend",
			},
		),
		CatalogProducts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_catalog_products",
				Help: "Products currently held in the catalog cache",
			},
		),
	}

	reg.MustRegister(
		m.RequestCounter,
		m.RequestLatency,
		m.CatalogRefresh,
		m.StaleDiscards,
		m.CartMutations,
		m.OrdersPlaced,
		m.CatalogProducts,
	)
	return m
}

// NewNop returns collectors registered on a throwaway registry, for tests
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
