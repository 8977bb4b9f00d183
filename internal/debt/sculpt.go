package debt

import (
	"encoding/json"
	"math"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/loans"
)

// Terms are the loan terms a schedule is built against.
type Terms struct {
	InterestRate float64
	TenorYears   int
	Frequency    Frequency
}

// Periods returns the number of repayment periods in the tenor.
func (t Terms) Periods() int {
	if t.TenorYears <= 0 {
		return 0
	}
	return t.TenorYears * t.Frequency.PeriodsPerYear()
}

// PeriodRate returns the interest rate for a single full period.
func (t Terms) PeriodRate() float64 {
	return loans.PeriodRate(t.InterestRate, t.Frequency.PeriodsPerYear())
}

// PeriodPayment is one finished row of an amortization schedule.
type PeriodPayment struct {
	Period      int     `json:"period"`
	Opening     float64 `json:"opening"`
	Interest    float64 `json:"interest"`
	Principal   float64 `json:"principal"`
	DebtService float64 `json:"debtService"`
	Closing     float64 `json:"closing"`
	Capacity    float64 `json:"capacity"`
	Fraction    float64 `json:"fraction"`
	// AmortizationFloor is the level principal needed to reach zero exactly at
	// tenor end from this period's opening balance.
	AmortizationFloor float64 `json:"amortizationFloor"`
	// InterestShortfall marks a period whose capacity could not cover interest.
	// Debt service is capped at capacity and the balance carries forward.
	InterestShortfall bool `json:"interestShortfall,omitempty"`
}

// ScheduleMetrics summarizes a schedule for the solver and for reporting.
type ScheduleMetrics struct {
	FullyRepaid       bool    `json:"fullyRepaid"`
	DSCRBreached      bool    `json:"dscrBreached"`
	NegativePrincipal bool    `json:"negativePrincipal"`
	FinalBalance      float64 `json:"finalBalance"`
	// PayoffPeriod is the first period closing at zero, or -1.
	PayoffPeriod int `json:"payoffPeriod"`
	// PayoffPeriodsFromEnd is only meaningful when PayoffPeriod >= 0.
	PayoffPeriodsFromEnd  int     `json:"payoffPeriodsFromEnd"`
	AverageDebtService    float64 `json:"averageDebtService"`
	UnderAmortizedPeriods int     `json:"underAmortizedPeriods"`
	ShortfallPeriods      int     `json:"shortfallPeriods"`
}

// PaysOffEarly reports whether the balance reached zero more than the allowed
// number of periods before tenor end.
func (m ScheduleMetrics) PaysOffEarly() bool {
	return m.PayoffPeriod >= 0 && m.PayoffPeriodsFromEnd > constants.MaxEarlyPayoffPeriods
}

// Schedule is an immutable period-level amortization schedule for one principal.
type Schedule struct {
	principal float64
	frequency Frequency
	rows      []PeriodPayment
	metrics   ScheduleMetrics
}

func newSchedule(principal float64, freq Frequency, rows []PeriodPayment) *Schedule {
	return &Schedule{
		principal: principal,
		frequency: freq,
		rows:      rows,
		metrics:   computeMetrics(principal, rows),
	}
}

// Principal returns the amount the schedule amortizes.
func (s *Schedule) Principal() float64 { return s.principal }

// Frequency returns the period length of the schedule.
func (s *Schedule) Frequency() Frequency { return s.frequency }

// Len returns the number of periods.
func (s *Schedule) Len() int { return len(s.rows) }

// Row returns a copy of period p.
func (s *Schedule) Row(p int) PeriodPayment { return s.rows[p] }

// Rows returns a copy of all periods.
func (s *Schedule) Rows() []PeriodPayment {
	out := make([]PeriodPayment, len(s.rows))
	copy(out, s.rows)
	return out
}

// Balance returns the balance before period p; Balance(Len()) is the final balance.
func (s *Schedule) Balance(p int) float64 {
	if p == 0 {
		return s.principal
	}
	return s.rows[p-1].Closing
}

// Metrics returns the schedule metrics.
func (s *Schedule) Metrics() ScheduleMetrics { return s.metrics }

// TotalPrincipal sums principal across all periods.
func (s *Schedule) TotalPrincipal() float64 {
	var total float64
	for _, row := range s.rows {
		total += row.Principal
	}
	return total
}

// MarshalJSON exposes the schedule for API responses.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Principal float64         `json:"principal"`
		Frequency Frequency       `json:"frequency"`
		Periods   []PeriodPayment `json:"periods"`
		Metrics   ScheduleMetrics `json:"metrics"`
	}{s.principal, s.frequency, s.rows, s.metrics})
}

// Sculpt builds the schedule for principal against per-period capacity.
// Capacity and fractions shorter than the tenor are padded with zero capacity
// and full periods.
//
// Each period takes the full principal the capacity allows after interest,
// even when that exceeds the level amortization floor. This front-loads
// repayment and may differ from lenders that sculpt to a flat DSCR.
func Sculpt(principal float64, capacity, fractions []float64, terms Terms) *Schedule {
	n := terms.Periods()
	capacity = pad(capacity, n, 0)
	fractions = pad(fractions, n, 1)
	rate := terms.PeriodRate()

	rows := make([]PeriodPayment, 0, n)
	balance := principal
	for p := 0; p < n; p++ {
		row := sculptPeriod(p, n, balance, rate, capacity[p], fractions[p])
		rows = append(rows, row)
		balance = row.Closing
	}

	return newSchedule(principal, terms.Frequency, forceClearFinalBalance(rows))
}

func sculptPeriod(p, n int, opening, rate, capacity, fraction float64) PeriodPayment {
	row := PeriodPayment{
		Period:   p,
		Opening:  opening,
		Interest: loans.CalculateInterestPayment(opening, rate, fraction),
		Capacity: capacity,
		Fraction: fraction,
	}

	if row.Interest > capacity+constants.Tolerance {
		row.DebtService = capacity
		row.Closing = opening
		row.InterestShortfall = true
		return row
	}

	headroom := math.Max(0, capacity-row.Interest)
	remaining := n - p - 1
	switch {
	case remaining == 0:
		row.AmortizationFloor = opening
		row.Principal = math.Min(opening, headroom)
	case opening <= 0:
		row.Principal = 0
	default:
		row.AmortizationFloor = opening / float64(remaining)
		row.Principal = math.Min(headroom, opening)
	}

	row.DebtService = row.Interest + row.Principal
	row.Closing = opening - row.Principal
	return row
}

// forceClearFinalBalance sweeps a residual balance into the last period when
// that period's capacity still has room for it.
func forceClearFinalBalance(rows []PeriodPayment) []PeriodPayment {
	if len(rows) == 0 {
		return rows
	}
	last := rows[len(rows)-1]
	residual := last.Closing
	if residual <= constants.Tolerance || last.InterestShortfall {
		return rows
	}
	spare := math.Max(0, last.Capacity-last.DebtService)
	if residual > spare+constants.Tolerance {
		return rows
	}

	out := make([]PeriodPayment, len(rows))
	copy(out, rows)
	last.Principal += residual
	last.DebtService = last.Interest + last.Principal
	last.Closing = 0
	out[len(out)-1] = last
	return out
}

func computeMetrics(principal float64, rows []PeriodPayment) ScheduleMetrics {
	n := len(rows)
	final := principal
	if n > 0 {
		final = rows[n-1].Closing
	}

	m := ScheduleMetrics{
		FinalBalance:         final,
		FullyRepaid:          final < constants.Tolerance,
		PayoffPeriod:         -1,
		PayoffPeriodsFromEnd: -1,
	}

	var totalService float64
	for i, row := range rows {
		totalService += row.DebtService
		// A shortfall row pays exactly its capacity, so it is reported but not a breach.
		if row.InterestShortfall {
			m.ShortfallPeriods++
		}
		if row.DebtService > row.Capacity+constants.Tolerance {
			m.DSCRBreached = true
		}
		if row.Principal < 0 {
			m.NegativePrincipal = true
		}
		if row.Principal+constants.Tolerance < row.AmortizationFloor {
			m.UnderAmortizedPeriods++
		}
		if m.PayoffPeriod < 0 && row.Closing < constants.Tolerance {
			m.PayoffPeriod = i
			m.PayoffPeriodsFromEnd = n - i - 1
		}
	}
	if n > 0 {
		m.AverageDebtService = totalService / float64(n)
	}
	return m
}

func pad(values []float64, n int, fill float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(values) {
			out[i] = values[i]
		} else {
			out[i] = fill
		}
	}
	return out
}
