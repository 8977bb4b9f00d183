// Package portfolio runs debt sizing across a portfolio of assets.
package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/project-finance/internal/capex"
	"github.com/iwvelando/project-finance/internal/debt"
	"github.com/iwvelando/project-finance/internal/metrics"
	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/datetime"
	"go.uber.org/zap"
)

// Asset is one asset's inputs to a run.
type Asset struct {
	ID          string
	Name        string
	Assumptions debt.Assumptions
	CashFlows   []debt.MonthlyCashFlow
	Capex       []capex.Row
}

// Settings are the run-level timing and concurrency settings.
type Settings struct {
	ModelStart         time.Time
	ModelEnd           time.Time
	DSCRFrequency      debt.Frequency
	RepaymentFrequency debt.Frequency
	GracePeriod        debt.GracePeriod
	Workers            int
}

// AssetResult holds everything produced for one asset.
type AssetResult struct {
	AssetID      string              `json:"assetId"`
	Name         string              `json:"name"`
	Sizing       debt.SizingResult   `json:"sizing"`
	Ledger       []debt.LedgerRow    `json:"-"`
	Capex        []capex.Row         `json:"-"`
	Repayment    debt.RepaymentCheck `json:"repayment"`
	DSCRBreaches []debt.DSCRBreach   `json:"dscrBreaches,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// Result is the output of a portfolio run.
type Result struct {
	RunID    string           `json:"runId"`
	Method   string           `json:"method"`
	Assets   []AssetResult    `json:"assets"`
	Ledger   []debt.LedgerRow `json:"ledger"`
	Capex    []capex.Row      `json:"capex"`
	Warnings []string         `json:"warnings,omitempty"`
	Duration time.Duration    `json:"duration"`
}

// Runner sizes each asset with a single strategy.
type Runner struct {
	logger   *zap.Logger
	strategy debt.Strategy
	settings Settings
}

// NewRunner constructs a Runner for the provided strategy and settings.
func NewRunner(logger *zap.Logger, strategy debt.Strategy, settings Settings) (*Runner, error) {
	if strategy == nil {
		return nil, fmt.Errorf("sizing strategy cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.ModelStart.IsZero() || settings.ModelEnd.IsZero() {
		return nil, fmt.Errorf("model start and end dates are required")
	}
	if settings.ModelEnd.Before(settings.ModelStart) {
		return nil, fmt.Errorf("model end %s is before model start %s",
			datetime.Format(settings.ModelEnd), datetime.Format(settings.ModelStart))
	}
	if !settings.DSCRFrequency.Valid() {
		return nil, fmt.Errorf("dscr frequency: %w: %q", debt.ErrInvalidFrequency, settings.DSCRFrequency)
	}
	if !settings.RepaymentFrequency.Valid() {
		return nil, fmt.Errorf("repayment frequency: %w: %q", debt.ErrInvalidFrequency, settings.RepaymentFrequency)
	}
	if settings.Workers < 1 {
		settings.Workers = constants.DefaultWorkers
	}
	return &Runner{logger: logger, strategy: strategy, settings: settings}, nil
}

// Run sizes every asset, runs post-sizing validation and aggregates the
// ledgers and CAPEX rows in asset order. Assets run concurrently up to the
// configured worker count. Degenerate assets produce zero debt and a warning;
// only malformed input or cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, assets []Asset) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	method := r.strategy.Name()

	r.logger.Info("starting sizing run",
		zap.String("op", "portfolio.Runner.Run"),
		zap.String("runId", runID),
		zap.String("method", method),
		zap.Int("assets", len(assets)),
		zap.Int("workers", r.settings.Workers),
	)

	results := make([]AssetResult, len(assets))
	errs := make([]error, len(assets))
	sem := make(chan struct{}, r.settings.Workers)
	var wg sync.WaitGroup

dispatch:
	for i := range assets {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = r.runAsset(assets[i])
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		metrics.SizingRuns.WithLabelValues(method, metrics.StatusCancelled).Inc()
		return nil, fmt.Errorf("sizing run %s cancelled: %w", runID, err)
	}
	for _, err := range errs {
		if err != nil {
			metrics.SizingRuns.WithLabelValues(method, metrics.StatusFailure).Inc()
			return nil, fmt.Errorf("sizing run %s: %w", runID, err)
		}
	}

	result := &Result{RunID: runID, Method: method, Assets: results}
	for _, ar := range results {
		result.Ledger = append(result.Ledger, ar.Ledger...)
		result.Capex = append(result.Capex, ar.Capex...)
		for _, w := range ar.Warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", ar.AssetID, w))
		}
	}
	result.Duration = time.Since(started)

	metrics.SizingRuns.WithLabelValues(method, metrics.StatusSuccess).Inc()
	metrics.RunDuration.Observe(result.Duration.Seconds())

	r.logger.Info("sizing run complete",
		zap.String("op", "portfolio.Runner.Run"),
		zap.String("runId", runID),
		zap.Int("assets", len(results)),
		zap.Int("ledgerRows", len(result.Ledger)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (r *Runner) runAsset(asset Asset) (AssetResult, error) {
	started := time.Now()
	a := asset.Assumptions
	out := AssetResult{AssetID: asset.ID, Name: asset.Name}

	sizing, err := r.strategy.Size(debt.SizingInput{
		AssetID:            asset.ID,
		Assumptions:        a,
		CashFlows:          asset.CashFlows,
		ModelStart:         r.settings.ModelStart,
		DSCRFrequency:      r.settings.DSCRFrequency,
		RepaymentFrequency: r.settings.RepaymentFrequency,
		GracePeriod:        r.settings.GracePeriod,
	})
	if err != nil {
		return out, fmt.Errorf("sizing asset %s: %w", asset.ID, err)
	}
	out.Sizing = sizing

	out.Ledger = debt.Materialize(debt.MaterializeInput{
		AssetID:            asset.ID,
		Sizing:             sizing,
		Capex:              capexDraws(asset.Capex),
		InterestRate:       a.InterestRate,
		TenorYears:         a.TenorYears,
		ModelStart:         r.settings.ModelStart,
		ModelEnd:           r.settings.ModelEnd,
		RepaymentFrequency: r.settings.RepaymentFrequency,
	})
	out.Capex = capex.ApplyRealizedSplit(asset.Capex, sizing.OptimalDebt)

	if sizing.OptimalDebt <= 0 {
		out.Warnings = append(out.Warnings, sizing.Summary.Notes...)
		r.logger.Warn("asset funded with 100% equity",
			zap.String("op", "portfolio.Runner.runAsset"),
			zap.String("asset", asset.ID),
			zap.Strings("notes", sizing.Summary.Notes),
		)
	} else {
		r.validate(asset, &out)
	}

	metrics.ObserveAsset(sizing.Method, sizing.OptimalDebt, sizing.HitGearingLimit, sizing.Summary.TotalIterations(), time.Since(started).Seconds())

	r.logger.Info("asset sized",
		zap.String("op", "portfolio.Runner.runAsset"),
		zap.String("asset", asset.ID),
		zap.String("method", sizing.Method),
		zap.Float64("debt", sizing.OptimalDebt),
		zap.Float64("gearing", sizing.Gearing),
		zap.Float64("minDSCR", sizing.MinDSCR),
		zap.Bool("hitGearingLimit", sizing.HitGearingLimit),
		zap.String("debtServiceStart", datetime.Format(sizing.DebtServiceStart)),
	)
	return out, nil
}

// validate runs the non-fatal repayment and DSCR checks.
func (r *Runner) validate(asset Asset, out *AssetResult) {
	a := asset.Assumptions
	sizing := out.Sizing

	out.Repayment = debt.ValidateRepayment(out.Ledger, sizing.DebtServiceStart, a.TenorYears)
	if !out.Repayment.Repaid {
		metrics.ValidationWarnings.WithLabelValues(metrics.CheckRepayment).Inc()
		out.Warnings = append(out.Warnings, fmt.Sprintf("debt not fully repaid by end of tenor, balance %.3f at %s",
			out.Repayment.FinalBalance, datetime.Format(out.Repayment.Date)))
		r.logger.Warn("debt not fully repaid by end of tenor",
			zap.String("op", "portfolio.Runner.validate"),
			zap.String("asset", asset.ID),
			zap.Float64("finalBalance", out.Repayment.FinalBalance),
			zap.String("date", datetime.Format(out.Repayment.Date)),
		)
	}

	if sizing.Schedule != nil && sizing.Schedule.Metrics().DSCRBreached {
		out.Warnings = append(out.Warnings, "sized schedule breaches DSCR capacity")
	}

	if sizing.Method != constants.SizingMethodDSCR {
		return
	}
	out.DSCRBreaches = debt.ValidateDSCR(out.Ledger, asset.CashFlows, sizing.DebtServiceStart, a.TenorYears, r.settings.DSCRFrequency, a.Targets())
	if len(out.DSCRBreaches) == 0 {
		return
	}
	metrics.ValidationWarnings.WithLabelValues(metrics.CheckDSCR).Inc()
	out.Warnings = append(out.Warnings, fmt.Sprintf("DSCR below target in %d period(s)", len(out.DSCRBreaches)))
	for i, b := range out.DSCRBreaches {
		if i == 3 {
			break
		}
		r.logger.Warn("DSCR below target",
			zap.String("op", "portfolio.Runner.validate"),
			zap.String("asset", asset.ID),
			zap.String("period", datetime.Format(b.PeriodStart)),
			zap.Float64("actual", b.Actual),
			zap.Float64("target", b.Target),
		)
	}
}

func capexDraws(rows []capex.Row) []debt.CapexDraw {
	draws := make([]debt.CapexDraw, 0, len(rows))
	for _, row := range rows {
		if row.Capex != 0 {
			draws = append(draws, debt.CapexDraw{Date: row.Date, Amount: row.Capex})
		}
	}
	return draws
}
