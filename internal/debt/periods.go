// Package debt sizes project debt against operating cash flow and expands the
// resulting schedule into a monthly ledger.
package debt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/datetime"
)

var (
	// ErrInvalidFrequency is returned when a period frequency name is not recognized.
	ErrInvalidFrequency = errors.New("invalid frequency")
	// ErrInvalidGracePeriod is returned when a grace period policy is not recognized.
	ErrInvalidGracePeriod = errors.New("invalid grace period")
)

// Frequency is the length of an aggregation or repayment period.
type Frequency string

const (
	Monthly   Frequency = constants.FrequencyMonthly
	Quarterly Frequency = constants.FrequencyQuarterly
	Annual    Frequency = constants.FrequencyAnnual
)

// ParseFrequency normalizes a frequency name.
func ParseFrequency(value string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(value)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, value)
	}
	return f, nil
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Quarterly, Annual:
		return true
	}
	return false
}

// MonthsPerPeriod returns 1, 3 or 12. Unknown frequencies are treated as annual.
func (f Frequency) MonthsPerPeriod() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return constants.MonthsPerQuarter
	default:
		return constants.MonthsPerYear
	}
}

// PeriodsPerYear returns 12, 4 or 1.
func (f Frequency) PeriodsPerYear() int {
	return constants.MonthsPerYear / f.MonthsPerPeriod()
}

// MonthlyCashFlow is one month of operating revenue and opex for an asset.
type MonthlyCashFlow struct {
	Date             time.Time `json:"date"`
	MerchantGreen    float64   `json:"merchantGreen"`
	MerchantEnergy   float64   `json:"merchantEnergy"`
	ContractedGreen  float64   `json:"contractedGreen"`
	ContractedEnergy float64   `json:"contractedEnergy"`
	Opex             float64   `json:"opex"`
}

// MerchantRevenue is the green plus energy merchant revenue.
func (m MonthlyCashFlow) MerchantRevenue() float64 {
	return m.MerchantGreen + m.MerchantEnergy
}

// ContractedRevenue is the green plus energy contracted revenue.
func (m MonthlyCashFlow) ContractedRevenue() float64 {
	return m.ContractedGreen + m.ContractedEnergy
}

// CFADS is the month's cash flow available for debt service, which may be negative.
func (m MonthlyCashFlow) CFADS() float64 {
	return m.MerchantRevenue() + m.ContractedRevenue() - m.Opex
}

// PeriodCashFlow is the cash flow of one aggregation period.
type PeriodCashFlow struct {
	Index             int       `json:"index"`
	Start             time.Time `json:"start"`
	Months            int       `json:"months"`
	MerchantRevenue   float64   `json:"merchantRevenue"`
	ContractedRevenue float64   `json:"contractedRevenue"`
	Opex              float64   `json:"opex"`
	Fraction          float64   `json:"fraction"`
}

// Revenue returns total period revenue.
func (p PeriodCashFlow) Revenue() float64 {
	return p.MerchantRevenue + p.ContractedRevenue
}

// CFADS returns revenue less opex, which may be negative.
func (p PeriodCashFlow) CFADS() float64 {
	return p.Revenue() - p.Opex
}

// NormalizeOperationsStart clamps the operations start to the model start.
func NormalizeOperationsStart(operationsStart, modelStart time.Time) time.Time {
	start := datetime.MonthStart(operationsStart)
	if !modelStart.IsZero() {
		if ms := datetime.MonthStart(modelStart); start.Before(ms) {
			start = ms
		}
	}
	return start
}

// AggregatePeriods groups monthly cash flows into periods offset from the
// operations start. Months before the (normalized) operations start are
// dropped. A period's fraction is the share of its months present in the input.
func AggregatePeriods(monthly []MonthlyCashFlow, operationsStart, modelStart time.Time, freq Frequency) []PeriodCashFlow {
	periods := []PeriodCashFlow{}
	if len(monthly) == 0 || operationsStart.IsZero() {
		return periods
	}

	start := NormalizeOperationsStart(operationsStart, modelStart)
	length := freq.MonthsPerPeriod()

	byOffset := make(map[int]*PeriodCashFlow)
	seen := make(map[int]map[time.Time]bool)
	for _, cf := range monthly {
		month := datetime.MonthStart(cf.Date)
		if month.Before(start) {
			continue
		}
		offset := datetime.MonthsBetween(start, month) / length
		period, ok := byOffset[offset]
		if !ok {
			period = &PeriodCashFlow{
				Index: offset,
				Start: datetime.AddMonths(start, offset*length),
			}
			byOffset[offset] = period
			seen[offset] = make(map[time.Time]bool)
		}
		period.MerchantRevenue += cf.MerchantRevenue()
		period.ContractedRevenue += cf.ContractedRevenue()
		period.Opex += cf.Opex
		if !seen[offset][month] {
			seen[offset][month] = true
			period.Months++
		}
	}

	offsets := make([]int, 0, len(byOffset))
	for offset := range byOffset {
		offsets = append(offsets, offset)
	}
	sort.Ints(offsets)

	for _, offset := range offsets {
		period := *byOffset[offset]
		period.Fraction = float64(period.Months) / float64(length)
		if period.Fraction > 1 {
			period.Fraction = 1
		}
		periods = append(periods, period)
	}
	return periods
}

// Fractions extracts the period fractions in order.
func Fractions(periods []PeriodCashFlow) []float64 {
	fractions := make([]float64, len(periods))
	for i, p := range periods {
		fractions[i] = p.Fraction
	}
	return fractions
}
