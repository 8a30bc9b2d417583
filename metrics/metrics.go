package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScoreDuration tracks the latency of campaign score evaluations.
	ScoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "growth_score_duration_seconds",
			Help: "Duration of campaign score evaluations in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
			},
		},
		[]string{"status"}, // success or failure
	)

	// RewardsComputed counts reward entries produced by evaluations.
	RewardsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growth_rewards_computed_total",
			Help: "Total reward entries produced by score evaluations",
		},
		[]string{"campaign", "currency"},
	)

	// ScoreCacheLookups counts score cache hits and misses.
	ScoreCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growth_score_cache_lookups_total",
			Help: "Score cache lookups by result",
		},
		[]string{"result"}, // hit, stale, miss or error
	)
)

// RecordScoreDuration records the duration of one score evaluation.
func RecordScoreDuration(status string, seconds float64) {
	ScoreDuration.WithLabelValues(status).Observe(seconds)
}

// RecordRewards counts rewards produced for a campaign and currency.
func RecordRewards(campaign, currency string, n int) {
	if n <= 0 {
		return
	}
	RewardsComputed.WithLabelValues(campaign, currency).Add(float64(n))
}

// RecordCacheLookup counts one cache lookup outcome.
func RecordCacheLookup(result string) {
	ScoreCacheLookups.WithLabelValues(result).Inc()
}
