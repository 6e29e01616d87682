package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "discovery",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "provider_requests_total",
		Help:      "Total requests to metadata providers by provider name and result status.",
	}, []string{"provider", "status"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "discovery",
		Name:      "provider_request_duration_seconds",
		Help:      "Metadata provider request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"provider"})

	ProviderAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "discovery",
		Name:      "provider_available",
		Help:      "Whether a provider is available (1) or blocked after repeated failures (0).",
	}, []string{"provider"})

	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "cache_hits_total",
		Help:      "Cache hits by key namespace.",
	}, []string{"namespace"})

	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "cache_misses_total",
		Help:      "Cache misses by key namespace.",
	}, []string{"namespace"})

	EnrichmentDropsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "enrichment_drops_total",
		Help:      "Candidates dropped during enrichment by reason.",
	}, []string{"reason"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ProviderAvailable,
		CacheHitsTotal,
		CacheMissesTotal,
		EnrichmentDropsTotal,
	)
}
