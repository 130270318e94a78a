package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costcontrol",
		Name:      "transitions_total",
		Help:      "Workflow transition attempts by entity kind, action and outcome.",
	}, []string{"kind", "action", "outcome"})

	aggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "costcontrol",
		Name:      "aggregation_duration_seconds",
		Help:      "Time spent loading a project snapshot and computing a cost view.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"view"})
)

func ObserveTransition(kind, action, outcome string) {
	transitionsTotal.WithLabelValues(kind, action, outcome).Inc()
}

// TrackAggregation returns a func that records the elapsed time for view
// when called.
func TrackAggregation(view string) func() {
	start := time.Now()
	return func() {
		aggregationDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
	}
}
