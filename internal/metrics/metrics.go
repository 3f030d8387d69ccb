package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "proctoradmin"
)

var (
	backendDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

	// Backend API Metrics
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Count of requests issued to the exam backend.",
	}, []string{"operation", "status"})

	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Latency of requests issued to the exam backend.",
		Buckets:   backendDurationBuckets,
	}, []string{"operation"})

	// Risk Aggregator Metrics
	RiskFlagResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "risk_flag_resolutions_total",
		Help:      "Risk flags resolved, by outcome (flagged, clear, failed).",
	}, []string{"outcome"})

	RiskFlagCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "risk_flag_cache_hits_total",
		Help:      "Sessions whose risk flag was already cached when requested.",
	})

	RiskResolvingInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "risk_resolving_in_flight",
		Help:      "Number of flag resolution batches currently in flight.",
	})

	// Dashboard Metrics
	BoardResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "board_resets_total",
		Help:      "Session collection reloads, by reason.",
	}, []string{"reason"})
)

const (
	OutcomeFlagged = "flagged"
	OutcomeClear   = "clear"
	OutcomeFailed  = "failed"
)
