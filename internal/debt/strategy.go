package debt

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/loans"
	"github.com/iwvelando/project-finance/pkg/optimization"
	"go.uber.org/zap"
)

// Assumptions are the financing assumptions for one asset.
type Assumptions struct {
	Capex              float64   `json:"capex"`
	MaxGearing         float64   `json:"maxGearing"`
	InterestRate       float64   `json:"interestRate"`
	TenorYears         int       `json:"tenorYears"`
	TargetDSCRContract float64   `json:"targetDSCRContract"`
	TargetDSCRMerchant float64   `json:"targetDSCRMerchant"`
	OperationsStart    time.Time `json:"operationsStart"`
	ConstructionStart  time.Time `json:"constructionStart"`
}

// Targets returns the DSCR targets.
func (a Assumptions) Targets() DSCRTargets {
	return DSCRTargets{Contract: a.TargetDSCRContract, Merchant: a.TargetDSCRMerchant}
}

// SizingInput carries one asset's data and the run-level timing policy.
type SizingInput struct {
	AssetID            string
	Assumptions        Assumptions
	CashFlows          []MonthlyCashFlow
	ModelStart         time.Time
	DSCRFrequency      Frequency
	RepaymentFrequency Frequency
	GracePeriod        GracePeriod
}

// Strategy sizes debt for one asset. Implementations must be safe for
// concurrent use across assets.
type Strategy interface {
	Name() string
	Size(in SizingInput) (SizingResult, error)
}

// NewStrategy returns the strategy for a sizing method name.
func NewStrategy(logger *zap.Logger, method string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", constants.SizingMethodDSCR:
		return NewDSCRStrategy(logger), nil
	case constants.SizingMethodAnnuity:
		return NewAnnuityStrategy(logger), nil
	default:
		return nil, fmt.Errorf("unknown debt sizing method %q", method)
	}
}

// DSCRStrategy sculpts debt to the cash flow the asset generates after
// operations start and solves for the largest viable principal.
type DSCRStrategy struct {
	logger *zap.Logger
	solver *Solver
}

// NewDSCRStrategy constructs a DSCRStrategy.
func NewDSCRStrategy(logger *zap.Logger) *DSCRStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DSCRStrategy{logger: logger, solver: NewSolver(logger)}
}

// Name implements Strategy.
func (s *DSCRStrategy) Name() string { return constants.SizingMethodDSCR }

// Size implements Strategy.
func (s *DSCRStrategy) Size(in SizingInput) (SizingResult, error) {
	a := in.Assumptions
	if a.Capex <= 0 {
		return zeroResult(s.Name(), in.AssetID, "capex is zero"), nil
	}
	if a.OperationsStart.IsZero() {
		return zeroResult(s.Name(), in.AssetID, "no operations start date"), nil
	}

	periods := AggregatePeriods(in.CashFlows, a.OperationsStart, in.ModelStart, in.DSCRFrequency)
	if len(periods) == 0 {
		s.logger.Warn("no operational cash flows found",
			zap.String("op", "debt.DSCRStrategy.Size"),
			zap.String("asset", in.AssetID),
		)
		return zeroResult(s.Name(), in.AssetID, "no operational cash flows"), nil
	}

	capacity := CalculateCapacity(periods, a.Targets())
	result := s.solver.Solve(SolveInput{
		AssetID:    in.AssetID,
		Capex:      a.Capex,
		MaxGearing: a.MaxGearing,
		Capacity:   capacity,
		Fractions:  Fractions(periods),
		Terms: Terms{
			InterestRate: a.InterestRate,
			TenorYears:   a.TenorYears,
			Frequency:    in.DSCRFrequency,
		},
	})
	result.Method = s.Name()

	start, err := DebtServiceStart(NormalizeOperationsStart(a.OperationsStart, in.ModelStart), in.GracePeriod, paymentFrequency(in.DSCRFrequency, in.RepaymentFrequency))
	if err != nil {
		return SizingResult{}, fmt.Errorf("asset %s: %w", in.AssetID, err)
	}
	result.DebtServiceStart = start
	result.MinDSCR = minDSCR(periods, result.Schedule)

	s.logger.Debug("sized asset debt",
		zap.String("op", "debt.DSCRStrategy.Size"),
		zap.String("asset", in.AssetID),
		zap.Int("periods", len(periods)),
		zap.Float64("debt", result.OptimalDebt),
		zap.Float64("gearing", result.Gearing),
		zap.Float64("minDSCR", result.MinDSCR),
	)
	return result, nil
}

// AnnuityStrategy lends the maximum gearing and repays it with level payments
// at the repayment frequency, ignoring cash flow coverage.
type AnnuityStrategy struct {
	logger *zap.Logger
}

// NewAnnuityStrategy constructs an AnnuityStrategy.
func NewAnnuityStrategy(logger *zap.Logger) *AnnuityStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnuityStrategy{logger: logger}
}

// Name implements Strategy.
func (s *AnnuityStrategy) Name() string { return constants.SizingMethodAnnuity }

// Size implements Strategy.
func (s *AnnuityStrategy) Size(in SizingInput) (SizingResult, error) {
	a := in.Assumptions
	if a.Capex <= 0 {
		return zeroResult(s.Name(), in.AssetID, "capex is zero"), nil
	}
	if a.OperationsStart.IsZero() {
		return zeroResult(s.Name(), in.AssetID, "no operations start date"), nil
	}

	freq := in.RepaymentFrequency
	terms := Terms{InterestRate: a.InterestRate, TenorYears: a.TenorYears, Frequency: freq}
	debt := a.Capex * a.MaxGearing

	periods := AggregatePeriods(in.CashFlows, a.OperationsStart, in.ModelStart, freq)
	capacity := pad(CalculateCapacity(periods, a.Targets()), terms.Periods(), 0)

	payments := loans.GenerateSchedule(debt, terms.PeriodRate(), terms.Periods())
	rows := make([]PeriodPayment, 0, len(payments))
	opening := debt
	for i, p := range payments {
		rows = append(rows, PeriodPayment{
			Period:      i,
			Opening:     opening,
			Interest:    p.Interest,
			Principal:   p.Principal,
			DebtService: p.Payment,
			Closing:     p.RemainingPrincipal,
			Capacity:    capacity[i],
			Fraction:    1,
		})
		opening = p.RemainingPrincipal
	}
	schedule := newSchedule(debt, freq, rows)

	start, err := DebtServiceStart(NormalizeOperationsStart(a.OperationsStart, in.ModelStart), in.GracePeriod, freq)
	if err != nil {
		return SizingResult{}, fmt.Errorf("asset %s: %w", in.AssetID, err)
	}

	summary := optimization.Summary{
		Scope:           "asset",
		TargetName:      in.AssetID,
		Field:           "debt",
		UpperBound:      debt,
		Value:           debt,
		Gearing:         a.MaxGearing,
		Converged:       true,
		HitGearingLimit: debt > 0,
		ValueDisplay:    fmt.Sprintf("%.3f", debt),
	}
	summary.AddNote("annuity sizing lends at maximum gearing")
	if schedule.Metrics().DSCRBreached {
		summary.AddNote("level payments exceed DSCR capacity in at least one period")
	}

	return SizingResult{
		Method:           s.Name(),
		OptimalDebt:      debt,
		Gearing:          a.MaxGearing,
		DebtServiceStart: start,
		Schedule:         schedule,
		HitGearingLimit:  debt > 0,
		MinDSCR:          minDSCR(periods, schedule),
		Summary:          summary,
	}, nil
}

func zeroResult(method, assetID, note string) SizingResult {
	summary := optimization.Summary{
		Scope:      "asset",
		TargetName: assetID,
		Field:      "debt",
		Converged:  true,
	}
	summary.AddNote(note)
	return SizingResult{Method: method, Summary: summary}
}

// paymentFrequency is the cadence payments land on in the monthly ledger.
// Annual schedules are paid at the configured repayment frequency.
func paymentFrequency(scheduleFreq, repaymentFreq Frequency) Frequency {
	if scheduleFreq == Annual && repaymentFreq.Valid() {
		return repaymentFreq
	}
	return scheduleFreq
}

// minDSCR is the lowest CFADS over debt service across periods that pay debt
// service, or zero when none do.
func minDSCR(periods []PeriodCashFlow, schedule *Schedule) float64 {
	if schedule == nil {
		return 0
	}
	lowest := math.Inf(1)
	for i := 0; i < len(periods) && i < schedule.Len(); i++ {
		service := schedule.Row(i).DebtService
		if service <= constants.Tolerance {
			continue
		}
		if dscr := periods[i].CFADS() / service; dscr < lowest {
			lowest = dscr
		}
	}
	if math.IsInf(lowest, 1) {
		return 0
	}
	return lowest
}
