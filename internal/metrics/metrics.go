package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Route metrics
	RouteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_router_route_requests_total",
			Help: "Total number of routing requests",
		},
		[]string{"swap_mode", "status"},
	)

	RouteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_router_route_duration_seconds",
			Help:    "Routing request duration in seconds, including snapshot fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"swap_mode"},
	)

	PoolsEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clmm_router_pools_evaluated",
		Help:    "Number of candidate pools per routing request",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
	})

	PoolExclusions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_router_pool_exclusions_total",
			Help: "Pools excluded from routing by reason",
		},
		[]string{"reason"},
	)

	// Sampled 1/128 on the hot path.
	SimulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clmm_router_simulation_duration_seconds",
		Help:    "Single pool quote simulation duration in seconds",
		Buckets: []float64{0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
	})

	TickArraysCrossed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clmm_router_tick_arrays_crossed",
		Help:    "Tick arrays touched by a winning quote",
		Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
	})

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_router_price_impact_bps",
			Help:    "Price impact of selected quotes in basis points",
			Buckets: []float64{1, 10, 50, 100, 300, 500, 1000, 5000},
		},
		[]string{"swap_mode"},
	)

	// Envelope metrics
	EnvelopeBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_router_envelope_builds_total",
			Help: "Execution envelope builds by status",
		},
		[]string{"status"},
	)

	SlippagePolicyUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_router_slippage_policy_updates_total",
		Help: "Total number of slippage policy updates",
	})

	// Settlement metrics
	SettlementRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_router_settlement_requests_total",
			Help: "Settlement outcomes by status",
		},
		[]string{"status"},
	)

	SwapDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_router_swap_duration_seconds",
			Help:    "End to end swap duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// Snapshot provider metrics
	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_router_provider_fetch_duration_seconds",
			Help:    "Snapshot provider call duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"provider", "operation"},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_router_provider_errors_total",
			Help: "Snapshot provider errors",
		},
		[]string{"provider", "operation"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clmm_router_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	TickArrayCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_router_tick_array_cache_hits_total",
		Help: "Total number of tick array cache hits",
	})

	TickArrayCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_router_tick_array_cache_misses_total",
		Help: "Total number of tick array cache misses",
	})

	TickArrayCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clmm_router_tick_array_cache_size",
		Help: "Current number of entries in the tick array cache",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_router_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
