package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache tier label values.
const (
	TierWallet   = "wallet"
	TierMetadata = "metadata"
	TierPrice    = "price"
	TierImage    = "image"
)

// Upstream source label values.
const (
	SourceBalances    = "balances_provider"
	SourceRegistry    = "asset_registry"
	SourceDEXScreener = "dexscreener"
	SourceCoinGecko   = "coingecko"
	SourceBlobStore   = "blob_store"
)

var (
	// CacheHits counts cache reads that returned a fresh value, per tier.
	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_balances_cache_hits_total",
		Help: "Cache reads served from a tier without an upstream fetch.",
	}, []string{"tier"})

	// CacheMisses counts cache reads that fell through, per tier. Fail-open
	// store errors count as misses here and as errors in CacheErrors.
	CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_balances_cache_misses_total",
		Help: "Cache reads that required an upstream fetch.",
	}, []string{"tier"})

	// CacheErrors counts store read/write failures that degraded to a miss.
	CacheErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_balances_cache_errors_total",
		Help: "Cache store failures absorbed by the fail-open policy.",
	}, []string{"tier"})

	// UpstreamRequests counts outbound calls per source and outcome.
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_balances_upstream_requests_total",
		Help: "Outbound requests to third-party sources.",
	}, []string{"source", "outcome"})

	// RequestDuration observes full pipeline latency per chain.
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wallet_balances_request_duration_seconds",
		Help:    "End-to-end balance pipeline duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"chain", "cache"})
)

// MustRegister registers all pipeline metrics with the default registry.
func MustRegister() {
	prometheus.MustRegister(
		CacheHits,
		CacheMisses,
		CacheErrors,
		UpstreamRequests,
		RequestDuration,
	)
}

// ObserveUpstream records one outbound call outcome.
func ObserveUpstream(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequests.WithLabelValues(source, outcome).Inc()
}
