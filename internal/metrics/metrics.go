package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_attempts_started_total",
		Help: "Attempts created by a start call",
	})

	AttemptsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempts_submitted_total",
			Help: "Submissions by outcome",
		},
		[]string{"outcome"},
	)

	SubmittedScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quiz_submitted_score",
		Help:    "Scores computed for accepted submissions",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		RequestCounter,
		RequestDuration,
		AttemptsStarted,
		AttemptsSubmitted,
		SubmittedScore,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
