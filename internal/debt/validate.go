package debt

import (
	"time"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/datetime"
)

// RepaymentCheck is the outcome of the tenor-end repayment validation.
type RepaymentCheck struct {
	Date         time.Time `json:"date"`
	FinalBalance float64   `json:"finalBalance"`
	Repaid       bool      `json:"repaid"`
}

// ValidateRepayment reports the balance in the last ledger month within the
// tenor, or the last month overall when no month falls within it.
func ValidateRepayment(rows []LedgerRow, debtServiceStart time.Time, tenorYears int) RepaymentCheck {
	if len(rows) == 0 {
		return RepaymentCheck{Repaid: true}
	}

	final := rows[len(rows)-1]
	if !debtServiceStart.IsZero() {
		tenorEnd := TenorEnd(debtServiceStart, tenorYears)
		for _, row := range rows {
			if !row.Date.Before(debtServiceStart) && !row.Date.After(tenorEnd) {
				final = row
			}
		}
	}

	return RepaymentCheck{
		Date:         final.Date,
		FinalBalance: final.EndingBalance,
		Repaid:       final.EndingBalance <= constants.Tolerance,
	}
}

// DSCRBreach is a period whose realized coverage fell below target.
type DSCRBreach struct {
	PeriodStart time.Time `json:"periodStart"`
	CFADS       float64   `json:"cfads"`
	DebtService float64   `json:"debtService"`
	Actual      float64   `json:"actual"`
	Target      float64   `json:"target"`
}

// ValidateDSCR recomputes realized coverage over the debt service window.
// Quarterly validation groups by calendar quarter; other frequencies compare
// month by month and skip months without positive CFADS. The target is the
// blended ratio implied by each period's revenue mix.
func ValidateDSCR(rows []LedgerRow, cashFlows []MonthlyCashFlow, debtServiceStart time.Time, tenorYears int, freq Frequency, targets DSCRTargets) []DSCRBreach {
	if debtServiceStart.IsZero() {
		return nil
	}
	tenorEnd := TenorEnd(debtServiceStart, tenorYears)

	byMonth := make(map[time.Time]MonthlyCashFlow, len(cashFlows))
	for _, cf := range cashFlows {
		month := datetime.MonthStart(cf.Date)
		agg := byMonth[month]
		agg.Date = month
		agg.MerchantGreen += cf.MerchantGreen
		agg.MerchantEnergy += cf.MerchantEnergy
		agg.ContractedGreen += cf.ContractedGreen
		agg.ContractedEnergy += cf.ContractedEnergy
		agg.Opex += cf.Opex
		byMonth[month] = agg
	}

	type bucket struct {
		start       time.Time
		debtService float64
		cash        MonthlyCashFlow
	}
	var buckets []*bucket
	index := make(map[time.Time]*bucket)

	groupMonths := 1
	if freq == Quarterly {
		groupMonths = constants.MonthsPerQuarter
	}

	for _, row := range rows {
		if row.Date.Before(debtServiceStart) || row.Date.After(tenorEnd) {
			continue
		}
		key := calendarPeriodStart(row.Date, groupMonths)
		b, ok := index[key]
		if !ok {
			b = &bucket{start: key}
			index[key] = b
			buckets = append(buckets, b)
			for m := 0; m < groupMonths; m++ {
				cf := byMonth[datetime.AddMonths(key, m)]
				b.cash.MerchantGreen += cf.MerchantGreen
				b.cash.MerchantEnergy += cf.MerchantEnergy
				b.cash.ContractedGreen += cf.ContractedGreen
				b.cash.ContractedEnergy += cf.ContractedEnergy
				b.cash.Opex += cf.Opex
			}
		}
		b.debtService += row.DebtService
	}

	var breaches []DSCRBreach
	for _, b := range buckets {
		if b.debtService <= 0 {
			continue
		}
		cfads := b.cash.CFADS()
		if groupMonths == 1 && cfads <= 0 {
			continue
		}
		actual := cfads / b.debtService
		target := BlendedDSCR(b.cash.ContractedRevenue(), b.cash.MerchantRevenue(), targets)
		if actual < target-constants.DSCRBreachTolerance {
			breaches = append(breaches, DSCRBreach{
				PeriodStart: b.start,
				CFADS:       cfads,
				DebtService: b.debtService,
				Actual:      actual,
				Target:      target,
			})
		}
	}
	return breaches
}

func calendarPeriodStart(t time.Time, monthsPerPeriod int) time.Time {
	month := datetime.MonthStart(t)
	if monthsPerPeriod <= 1 {
		return month
	}
	zeroBased := int(month.Month()) - 1
	return datetime.AddMonths(time.Date(month.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), zeroBased/monthsPerPeriod*monthsPerPeriod)
}
