package segment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// segmentTotal counts queries by outcome kind.
	segmentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wordsep_segment_total",
		Help: "Total segmentation queries by outcome",
	}, []string{"outcome"})

	// segmentDuration tracks query latency
	segmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wordsep_segment_duration_seconds",
		Help:    "Segmentation query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	})

	segmentSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wordsep_segment_steps",
		Help:    "Search tree expansions per query",
		Buckets: prometheus.ExponentialBuckets(1, 8, 8),
	})
)

func observe(err error, steps int, elapsed time.Duration) {
	segmentTotal.WithLabelValues(Kind(err)).Inc()
	segmentDuration.Observe(elapsed.Seconds())
	if steps > 0 {
		segmentSteps.Observe(float64(steps))
	}
}
