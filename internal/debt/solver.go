package debt

import (
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/optimization"
	"go.uber.org/zap"
)

// SizingResult is the outcome of sizing one asset's debt.
type SizingResult struct {
	Method           string               `json:"method"`
	OptimalDebt      float64              `json:"optimalDebt"`
	Gearing          float64              `json:"gearing"`
	DebtServiceStart time.Time            `json:"debtServiceStart"`
	Schedule         *Schedule            `json:"schedule,omitempty"`
	HitGearingLimit  bool                 `json:"hitGearingLimit"`
	MinDSCR          float64              `json:"minDSCR"`
	Summary          optimization.Summary `json:"summary"`
}

// SolveInput is everything the solver needs for one asset.
type SolveInput struct {
	AssetID    string
	Capex      float64
	MaxGearing float64
	Capacity   []float64
	Fractions  []float64
	Terms      Terms
}

// DebtCap is the largest principal the gearing limit allows.
func (in SolveInput) DebtCap() float64 {
	return in.Capex * in.MaxGearing
}

// Solver searches for the largest principal whose sculpted schedule is viable.
type Solver struct {
	logger                  *zap.Logger
	maxIterations           int
	maxRefinementIterations int
	tolerance               float64
}

// NewSolver constructs a Solver with the default search bounds.
func NewSolver(logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{
		logger:                  logger,
		maxIterations:           constants.MaxSolverIterations,
		maxRefinementIterations: constants.MaxRefinementIterations,
		tolerance:               constants.Tolerance,
	}
}

type candidate struct {
	debt     float64
	schedule *Schedule
}

type verdict struct {
	repayable bool
	early     bool
}

func (v verdict) viable() bool {
	return v.repayable && !v.early
}

func assess(s *Schedule) verdict {
	m := s.Metrics()
	return verdict{
		repayable: m.FullyRepaid && math.Abs(m.FinalBalance) < constants.Tolerance && !m.NegativePrincipal && !m.DSCRBreached,
		early:     m.PaysOffEarly(),
	}
}

// Solve runs the bisection. It never returns an error: when no principal in
// [0, capex*maxGearing] is viable the result is zero debt.
func (s *Solver) Solve(in SolveInput) SizingResult {
	summary := optimization.Summary{
		Scope:      "asset",
		TargetName: in.AssetID,
		Field:      "debt",
		LowerBound: 0,
		UpperBound: in.DebtCap(),
	}

	if in.Capex <= 0 || len(in.Capacity) == 0 {
		summary.Converged = true
		summary.AddNote("no capex or operating capacity; asset is fully equity funded")
		return SizingResult{Summary: summary}
	}

	ceiling := in.DebtCap()
	lower, upper := 0.0, ceiling
	best := 0.0
	var bestSchedule *Schedule
	var fallback candidate

	iteration := 0
	acceptedAtCap := false
	for iteration < s.maxIterations && upper-lower > s.tolerance {
		amount := (lower + upper) / 2
		schedule := Sculpt(amount, in.Capacity, in.Fractions, in.Terms)
		v := assess(schedule)

		s.logger.Debug("debt solver iteration",
			zap.String("op", "debt.Solver.Solve"),
			zap.String("asset", in.AssetID),
			zap.Int("iteration", iteration+1),
			zap.Float64("candidate", amount),
			zap.Bool("repayable", v.repayable),
			zap.Bool("early", v.early),
		)

		iteration++
		switch {
		case v.viable():
			lower = amount
			best = amount
			bestSchedule = schedule
			fallback = candidate{debt: amount, schedule: schedule}
		case v.repayable && v.early:
			if amount < ceiling-s.tolerance {
				// Too little debt to use the tenor; push upward without recording.
				lower = amount
				continue
			}
			best = amount
			bestSchedule = schedule
			acceptedAtCap = true
		default:
			upper = amount
		}
		// Nothing above the cap can be tried, so narrowing further cannot change best.
		if acceptedAtCap {
			break
		}
	}
	summary.Iterations = iteration
	summary.Converged = acceptedAtCap || upper-lower <= s.tolerance

	if best > 0 {
		bestSchedule = Sculpt(best, in.Capacity, in.Fractions, in.Terms)
		best, bestSchedule = s.refineEarlyPayoff(in, best, bestSchedule, &summary)
	}

	best, bestSchedule = s.enforceGearingCap(in, best, bestSchedule, fallback, &summary)

	gearing := 0.0
	if in.Capex > 0 {
		gearing = best / in.Capex
	}
	if best <= 0 {
		bestSchedule = nil
		summary.AddNote("no viable principal within gearing cap; asset is fully equity funded")
	}

	summary.Value = best
	summary.Gearing = gearing
	summary.ValueDisplay = fmt.Sprintf("%.3f", best)
	summary.HitGearingLimit = best > 0 && math.Abs(gearing-in.MaxGearing) < constants.Tolerance

	result := SizingResult{
		OptimalDebt:     best,
		Gearing:         gearing,
		Schedule:        bestSchedule,
		HitGearingLimit: summary.HitGearingLimit,
		Summary:         summary,
	}

	s.logger.Debug("debt solver finished",
		zap.String("op", "debt.Solver.Solve"),
		zap.String("asset", in.AssetID),
		zap.Float64("debt", best),
		zap.Float64("gearing", gearing),
		zap.Int("iterations", summary.Iterations),
		zap.Int("refinementIterations", summary.RefinementIterations),
		zap.Bool("hitGearingLimit", result.HitGearingLimit),
	)
	return result
}

// refineEarlyPayoff runs a bounded search between best and the gearing cap when
// the best schedule still repays more than the allowed periods early.
func (s *Solver) refineEarlyPayoff(in SolveInput, best float64, schedule *Schedule, summary *optimization.Summary) (float64, *Schedule) {
	ceiling := in.DebtCap()
	if !schedule.Metrics().PaysOffEarly() || best >= ceiling-s.tolerance {
		return best, schedule
	}

	lower, upper := best, ceiling
	for i := 0; i < s.maxRefinementIterations; i++ {
		if upper-lower < s.tolerance {
			break
		}
		summary.RefinementIterations++
		amount := (lower + upper) / 2
		trial := Sculpt(amount, in.Capacity, in.Fractions, in.Terms)
		m := trial.Metrics()
		if m.FullyRepaid && !m.DSCRBreached && m.PayoffPeriod >= 0 && m.PayoffPeriodsFromEnd <= constants.MaxEarlyPayoffPeriods {
			lower = amount
			best = amount
			schedule = trial
		} else {
			upper = amount
		}
	}

	if schedule.Metrics().PaysOffEarly() {
		summary.AddNote(fmt.Sprintf("debt still repays %d periods before tenor end", schedule.Metrics().PayoffPeriodsFromEnd))
	}
	return best, schedule
}

// enforceGearingCap clamps a result above the cap to the cap when the capped
// schedule is viable; otherwise it falls back to the last viable sub-cap
// candidate seen by the search.
func (s *Solver) enforceGearingCap(in SolveInput, best float64, schedule *Schedule, fallback candidate, summary *optimization.Summary) (float64, *Schedule) {
	if in.Capex <= 0 || best/in.Capex <= in.MaxGearing+constants.Tolerance {
		return best, schedule
	}

	capped := in.DebtCap()
	trial := Sculpt(capped, in.Capacity, in.Fractions, in.Terms)
	if assess(trial).viable() {
		summary.AddNote("result clamped to gearing cap")
		return capped, trial
	}

	s.logger.Warn("gearing cap schedule not viable, falling back to sub-cap solution",
		zap.String("op", "debt.Solver.enforceGearingCap"),
		zap.String("asset", in.AssetID),
		zap.Float64("debt", best),
		zap.Float64("cap", capped),
		zap.Float64("fallback", fallback.debt),
	)
	summary.AddNote("gearing cap schedule not viable; using last viable sub-cap principal")
	return fallback.debt, fallback.schedule
}
