// Package metrics holds the business counters of the discovery pipeline.
// HTTP RED metrics live in the transport middleware.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "discovery_service"

var (
	interactionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_recorded_total",
			Help:      "Interaction events appended to the event store",
		},
		[]string{"action"},
	)

	subscriberFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_subscriber_failures_total",
			Help:      "Failures of post-append interaction subscribers",
		},
		[]string{"subscriber"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by namespace and result",
		},
		[]string{"namespace", "result"}, // hit, miss, expired, error
	)

	cacheOversize = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_oversize_total",
			Help:      "Cache writes refused because the value exceeded the size ceiling",
		},
		[]string{"namespace"},
	)

	aggregationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preference_aggregations_total",
			Help:      "Preference aggregation runs per profile",
		},
		[]string{"status"}, // ok, error
	)

	aggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "preference_aggregation_duration_seconds",
			Help:      "Duration of one profile aggregation",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	providerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_provider_calls_total",
			Help:      "Upstream search provider calls",
		},
		[]string{"provider", "status"}, // ok, error, open
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_provider_breaker_state",
			Help:      "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	dedupDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_duplicates_dropped_total",
			Help:      "Candidates collapsed as duplicates of an earlier listing",
		},
	)
)

func InteractionRecorded(action string) {
	interactionsRecorded.WithLabelValues(action).Inc()
}

func SubscriberFailed(subscriber string) {
	subscriberFailures.WithLabelValues(subscriber).Inc()
}

func CacheLookup(ns, result string) {
	cacheLookups.WithLabelValues(ns, result).Inc()
}

func CacheOversize(ns string) {
	cacheOversize.WithLabelValues(ns).Inc()
}

func AggregationRun(ok bool, seconds float64) {
	status := "ok"
	if !ok {
		status = "error"
	}
	aggregationRuns.WithLabelValues(status).Inc()
	aggregationDuration.Observe(seconds)
}

func ProviderCall(provider, status string) {
	providerCalls.WithLabelValues(provider, status).Inc()
}

func BreakerState(provider string, state int) {
	breakerState.WithLabelValues(provider).Set(float64(state))
}

func DuplicatesDropped(n int) {
	if n > 0 {
		dedupDropped.Add(float64(n))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
