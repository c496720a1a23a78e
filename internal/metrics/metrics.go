package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/illegalcall/inkgen/internal/apperror"
)

var (
	// Operation outcomes, one increment per workflow run
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkgen",
			Name:      "operations_total",
			Help:      "Total credit-gated operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	CreditsDebitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkgen",
			Name:      "credits_debited_total",
			Help:      "Total credits removed from balances",
		},
		[]string{"operation"},
	)

	// Provider round trip, including polling
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inkgen",
			Name:      "provider_duration_seconds",
			Help:      "External provider call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"operation"},
	)

	UsageEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkgen",
			Subsystem: "worker",
			Name:      "usage_events_total",
			Help:      "Generation events consumed by the usage recorder",
		},
		[]string{"status"},
	)
)

// Outcome labels for OperationsTotal.
const (
	OutcomeSuccess             = "success"
	OutcomeInsufficientCredits = "insufficient_credits"
	OutcomeRateLimited         = "rate_limited"
	OutcomeProviderError       = "provider_error"
	OutcomeProfileNotFound     = "profile_not_found"
	OutcomeError               = "error"
)

// Outcome classifies a workflow result for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, apperror.ErrInsufficientCredits):
		return OutcomeInsufficientCredits
	case errors.Is(err, apperror.ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, apperror.ErrGenerationFailed):
		return OutcomeProviderError
	case errors.Is(err, apperror.ErrProfileNotFound):
		return OutcomeProfileNotFound
	default:
		return OutcomeError
	}
}
