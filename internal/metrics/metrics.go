// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter for quizzes saved from the builder
	QuizzesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_created_total",
			Help: "Total number of quizzes created",
		},
	)

	AttemptsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_started_total",
			Help: "Total number of quiz attempts started",
		},
	)

	AttemptsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_completed_total",
			Help: "Total number of quiz attempts completed",
		},
	)

	// Gauge for attempts with a running countdown
	ActiveAttempts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_attempts_active",
			Help: "Current number of attempts in progress",
		},
	)

	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_persist_failures_total",
			Help: "Completed attempts whose results could not be stored or published",
		},
		[]string{"sink"}, // sink: store/events
	)

	ScorePercentage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_score_percentage",
			Help:    "Distribution of completed attempt percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)
