package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful evaluations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed evaluations (store or config issues).
	OutcomeError = "error"
)

var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "posture_engine",
			Name:      "evaluations_total",
			Help:      "Total number of service evaluations, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	evaluationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "posture_engine",
			Name:      "evaluation_seconds",
			Help:      "Per-service evaluation latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		},
	)

	recommendationsGenerated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "posture_engine",
			Name:      "recommendations_per_service",
			Help:      "Open recommendations produced per service per generation pass.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)
)

// Register attaches the posture-engine collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		evaluationsTotal,
		evaluationDurationSeconds,
		recommendationsGenerated,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEvaluation records one service evaluation's duration and outcome.
func ObserveEvaluation(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	evaluationsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	evaluationDurationSeconds.Observe(duration.Seconds())
}

// ObserveRecommendations records the size of one service's generated list.
func ObserveRecommendations(count int) {
	recommendationsGenerated.Observe(float64(count))
}
