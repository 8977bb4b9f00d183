// Package metrics exposes Prometheus collectors for sizing runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SizingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_sizing_runs_total",
			Help: "Total number of portfolio sizing runs",
		},
		[]string{"method", "status"},
	)

	AssetsSized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_sizing_assets_total",
			Help: "Total number of assets sized",
		},
		[]string{"method", "outcome"},
	)

	SolverIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "debt_solver_iterations",
			Help:    "Schedules evaluated by the debt solver per asset",
			Buckets: prometheus.LinearBuckets(0, 10, 7),
		},
		[]string{"method"},
	)

	AssetSizingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "debt_asset_sizing_duration_seconds",
			Help: "Duration of sizing and materializing one asset in seconds",
		},
		[]string{"method"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "debt_sizing_run_duration_seconds",
			Help: "Duration of a portfolio sizing run in seconds",
		},
	)

	ValidationWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_validation_warnings_total",
			Help: "Post-sizing validation warnings by check",
		},
		[]string{"check"},
	)
)

// Asset outcome labels.
const (
	OutcomeDebt         = "debt"
	OutcomeGearingLimit = "gearing_limit"
	OutcomeEquityFunded = "equity_funded"
)

// Validation check labels.
const (
	CheckRepayment = "repayment"
	CheckDSCR      = "dscr"
)

// Run status labels.
const (
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	StatusCancelled = "cancelled"
)

// Outcome classifies an asset's sizing result.
func Outcome(debt float64, hitGearingLimit bool) string {
	switch {
	case debt <= 0:
		return OutcomeEquityFunded
	case hitGearingLimit:
		return OutcomeGearingLimit
	default:
		return OutcomeDebt
	}
}

// ObserveAsset records one sized asset.
func ObserveAsset(method string, debt float64, hitGearingLimit bool, iterations int, seconds float64) {
	AssetsSized.WithLabelValues(method, Outcome(debt, hitGearingLimit)).Inc()
	SolverIterations.WithLabelValues(method).Observe(float64(iterations))
	AssetSizingDuration.WithLabelValues(method).Observe(seconds)
}
