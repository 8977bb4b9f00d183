package debt

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/datetime"
)

// GracePeriod controls when the first debt service payment is due.
type GracePeriod string

const (
	GraceNone       GracePeriod = constants.GracePeriodNone
	GraceProrate    GracePeriod = constants.GracePeriodProrate
	GraceFullPeriod GracePeriod = constants.GracePeriodFullPeriod
)

// ParseGracePeriod normalizes a grace period policy name.
func ParseGracePeriod(value string) (GracePeriod, error) {
	g := GracePeriod(strings.ToLower(strings.TrimSpace(value)))
	switch g {
	case GraceNone, GraceProrate, GraceFullPeriod:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGracePeriod, value)
}

// DebtServiceStart returns the first month debt service is paid. none and
// prorate start at operations start. full_period moves to the next absolute
// calendar boundary of the payment frequency: the next month for monthly, the
// next Jan/Apr/Jul/Oct for quarterly and the next January for annual.
func DebtServiceStart(operationsStart time.Time, grace GracePeriod, freq Frequency) (time.Time, error) {
	start := datetime.MonthStart(operationsStart)
	switch grace {
	case GraceNone, GraceProrate, "":
		return start, nil
	case GraceFullPeriod:
		return datetime.NextCalendarBoundary(start, freq.MonthsPerPeriod()), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidGracePeriod, grace)
	}
}

// TenorEnd returns the month debt service must be complete by.
func TenorEnd(debtServiceStart time.Time, tenorYears int) time.Time {
	return datetime.MonthStart(debtServiceStart).AddDate(tenorYears, 0, 0)
}

// LedgerRow is one calendar month of an asset's debt ledger.
type LedgerRow struct {
	AssetID          string    `json:"assetId"`
	Date             time.Time `json:"date"`
	BeginningBalance float64   `json:"beginningBalance"`
	Drawdowns        float64   `json:"drawdowns"`
	Interest         float64   `json:"interest"`
	Principal        float64   `json:"principal"`
	EndingBalance    float64   `json:"endingBalance"`
	DebtService      float64   `json:"debtService"`
	// AccruedInterest is interest accrued on drawn debt that has not yet been paid.
	AccruedInterest float64 `json:"accruedInterest"`
}

// CapexDraw is one month of construction spend.
type CapexDraw struct {
	Date   time.Time
	Amount float64
}

// MaterializeInput describes one asset's ledger expansion.
type MaterializeInput struct {
	AssetID            string
	Sizing             SizingResult
	Capex              []CapexDraw
	InterestRate       float64
	TenorYears         int
	ModelStart         time.Time
	ModelEnd           time.Time
	RepaymentFrequency Frequency
}

// Materialize expands a sized schedule into one ledger row per month of the
// model horizon. Construction drawdowns follow the CAPEX profile at the
// realized gearing and accrue unpaid interest until debt service starts.
func Materialize(in MaterializeInput) []LedgerRow {
	months := datetime.MonthRange(in.ModelStart, in.ModelEnd)
	rows := make([]LedgerRow, len(months))
	for i, month := range months {
		rows[i] = LedgerRow{AssetID: in.AssetID, Date: month}
	}

	debt := in.Sizing.OptimalDebt
	if debt <= 0 || len(months) == 0 {
		return rows
	}

	draws := drawdowns(debt, in.Capex, months[0])
	start := in.Sizing.DebtServiceStart
	schedule := in.Sizing.Schedule
	monthlyRate := in.InterestRate / constants.MonthsPerYear
	repayment := paymentFrequency(frequencyOf(schedule), in.RepaymentFrequency)

	balance, accrued := 0.0, 0.0
	for i, month := range months {
		row := rows[i]
		row.BeginningBalance = balance
		row.Drawdowns = draws[month]
		balance += row.Drawdowns

		if balance > 0 {
			accrued += balance * monthlyRate
			if schedule != nil && !start.IsZero() && !month.Before(start) {
				interest, principal := scheduledPayment(schedule, start, month, repayment)
				row.Interest = interest
				row.Principal = math.Min(principal, balance)
				balance -= row.Principal
				accrued = math.Max(0, accrued-interest)
			}
		}

		row.DebtService = row.Interest + row.Principal
		row.EndingBalance = balance
		row.AccruedInterest = accrued
		rows[i] = row
	}

	if start.IsZero() {
		return rows
	}
	tenorEnd := TenorEnd(start, in.TenorYears)
	rows = applyTenorSafetyNet(rows, start, tenorEnd)
	return clampAfterTenor(rows, tenorEnd)
}

// drawdowns maps each month to its debt drawdown. Spend dated before the
// horizon is drawn in the first month so the opening balance is carried.
func drawdowns(debt float64, capex []CapexDraw, first time.Time) map[time.Time]float64 {
	draws := make(map[time.Time]float64)
	var total float64
	for _, c := range capex {
		total += c.Amount
	}
	if total <= 0 {
		return draws
	}

	sorted := make([]CapexDraw, len(capex))
	copy(sorted, capex)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	gearing := debt / total
	drawn := 0.0
	for _, c := range sorted {
		if drawn >= debt {
			break
		}
		month := datetime.MonthStart(c.Date)
		if month.Before(first) {
			month = first
		}
		amount := math.Min(c.Amount*gearing, debt-drawn)
		if amount <= 0 {
			continue
		}
		draws[month] += amount
		drawn += amount
	}
	return draws
}

func frequencyOf(s *Schedule) Frequency {
	if s == nil {
		return ""
	}
	return s.Frequency()
}

// scheduledPayment returns the interest and principal due in month. Quarterly
// and annual schedules pay in calendar period-end months; an annual schedule
// is spread across the repayment frequency.
func scheduledPayment(s *Schedule, start, month time.Time, repayment Frequency) (interest, principal float64) {
	elapsed := datetime.MonthsBetween(start, month)
	if elapsed < 0 {
		return 0, 0
	}

	var index int
	var share float64
	switch s.Frequency() {
	case Monthly:
		index, share = elapsed, 1
	case Quarterly:
		index = elapsed / constants.MonthsPerQuarter
		if datetime.IsPeriodEndMonth(month, constants.MonthsPerQuarter) {
			share = 1
		}
	default:
		index = elapsed / constants.MonthsPerYear
		switch repayment {
		case Monthly:
			share = 1.0 / constants.MonthsPerYear
		case Quarterly:
			if datetime.IsPeriodEndMonth(month, constants.MonthsPerQuarter) {
				share = 1.0 / 4
			}
		default:
			if datetime.IsPeriodEndMonth(month, constants.MonthsPerYear) {
				share = 1
			}
		}
	}

	if share == 0 || index >= s.Len() {
		return 0, 0
	}
	row := s.Row(index)
	return row.Interest * share, row.Principal * share
}

// applyTenorSafetyNet pays any balance left in the last month of the tenor and
// re-rolls the rows that follow it. It only applies when the horizon reaches
// the tenor end.
func applyTenorSafetyNet(rows []LedgerRow, start, tenorEnd time.Time) []LedgerRow {
	last := -1
	for i, row := range rows {
		if !row.Date.Before(start) && !row.Date.After(tenorEnd) {
			last = i
		}
	}
	if last < 0 || rows[last].Date.Before(tenorEnd) {
		return rows
	}
	residual := rows[last].EndingBalance
	if residual <= constants.Tolerance {
		return rows
	}

	out := make([]LedgerRow, len(rows))
	copy(out, rows)
	out[last].Principal += residual
	out[last].DebtService = out[last].Interest + out[last].Principal
	out[last].EndingBalance = 0
	for j := last + 1; j < len(out); j++ {
		out[j].BeginningBalance = out[j-1].EndingBalance
		out[j].EndingBalance = out[j].BeginningBalance + out[j].Drawdowns - out[j].Principal
	}
	return out
}

// clampAfterTenor forces every balance after the tenor end to zero.
func clampAfterTenor(rows []LedgerRow, tenorEnd time.Time) []LedgerRow {
	out := make([]LedgerRow, len(rows))
	copy(out, rows)
	for i := range out {
		if !out[i].Date.After(tenorEnd) {
			continue
		}
		if i > 0 {
			out[i].BeginningBalance = out[i-1].EndingBalance
			out[i].EndingBalance = out[i].BeginningBalance + out[i].Drawdowns - out[i].Principal
		}
		if out[i].EndingBalance > constants.Tolerance {
			out[i].Principal += out[i].EndingBalance
			out[i].DebtService = out[i].Interest + out[i].Principal
			out[i].EndingBalance = 0
		}
	}
	return out
}
