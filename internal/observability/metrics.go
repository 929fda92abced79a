package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReviewsCreated counts reviews persisted, drafts included.
	ReviewsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Total number of reviews created",
	})

	// ReviewVotes counts vote submissions by verdict.
	ReviewVotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_votes_total",
		Help: "Total number of helpfulness votes cast",
	}, []string{"helpful"})

	// ReviewViews counts recorded review views.
	ReviewViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_views_total",
		Help: "Total number of review views recorded",
	})

	// CounterReconcileCorrections counts rows whose stored counter drifted from the truth.
	CounterReconcileCorrections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counter_reconcile_corrections_total",
		Help: "Total number of denormalized counters corrected by reconciliation",
	}, []string{"counter"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviewhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// RecordVote increments the vote counter for the given verdict.
func RecordVote(helpful bool) {
	ReviewVotes.WithLabelValues(strconv.FormatBool(helpful)).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
