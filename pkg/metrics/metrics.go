package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerateRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_generate_runs_total",
			Help: "Total number of recommendation generation runs",
		},
		[]string{"result"},
	)

	RecommendationsSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_recommendations_saved_total",
			Help: "Total number of recommendations persisted",
		},
	)

	ProviderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_signal_provider_failures_total",
			Help: "Signal provider calls that failed or timed out and defaulted to neutral",
		},
		[]string{"provider"},
	)

	ModelTrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pricing_model_training_duration_seconds",
			Help: "Per-model training duration",
		},
		[]string{"model"},
	)

	ApprovalActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_approval_actions_total",
			Help: "Approve/skip actions by outcome",
		},
		[]string{"action", "outcome"},
	)
)
