// Package capex builds construction CAPEX timeseries and their debt/equity split.
package capex

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/datetime"
)

// Row is one month of an asset's CAPEX and its funding split.
type Row struct {
	AssetID     string    `json:"assetId"`
	Date        time.Time `json:"date"`
	Capex       float64   `json:"capex"`
	DebtCapex   float64   `json:"debtCapex"`
	EquityCapex float64   `json:"equityCapex"`
}

// FundingType controls the preliminary split of construction spend.
type FundingType string

const (
	EquityFirst FundingType = constants.FundingEquityFirst
	PariPassu   FundingType = constants.FundingPariPassu
)

// ParseFundingType normalizes a funding type name.
func ParseFundingType(value string) (FundingType, error) {
	f := FundingType(strings.ToLower(strings.TrimSpace(value)))
	switch f {
	case EquityFirst, PariPassu:
		return f, nil
	case "":
		return EquityFirst, nil
	}
	return "", fmt.Errorf("invalid capex funding type %q", value)
}

// Plan describes one asset's construction spend.
type Plan struct {
	AssetID           string
	TotalCapex        float64
	MaxGearing        float64
	ConstructionStart time.Time
	OperationsStart   time.Time
	Funding           FundingType
}

// Entry is an explicitly supplied month of CAPEX.
type Entry struct {
	Date   time.Time
	Amount float64
}

// BuildSchedule spreads the plan's CAPEX linearly over the months from
// construction start up to (not including) operations start, returning one
// row per model month. When there is no construction window the whole amount
// lands in the operations start month. Spend dated before the model start is
// drawn in the first model month; spend after the model end is dropped.
func BuildSchedule(plan Plan, modelStart, modelEnd time.Time) []Row {
	rows := emptyRows(plan.AssetID, modelStart, modelEnd)
	if plan.TotalCapex <= 0 || plan.OperationsStart.IsZero() || len(rows) == 0 {
		return rows
	}

	opsStart := datetime.MonthStart(plan.OperationsStart)
	constructionStart := datetime.MonthStart(plan.ConstructionStart)
	constructionMonths := 0
	if !plan.ConstructionStart.IsZero() {
		constructionMonths = datetime.MonthsBetween(constructionStart, opsStart)
	}

	if constructionMonths <= 0 {
		place(rows, opsStart, plan.TotalCapex)
		return splitFunding(rows, plan.MaxGearing, plan.Funding)
	}
	monthly := plan.TotalCapex / float64(constructionMonths)
	for m := 0; m < constructionMonths; m++ {
		place(rows, datetime.AddMonths(constructionStart, m), monthly)
	}
	return splitFunding(rows, plan.MaxGearing, plan.Funding)
}

// BuildFromEntries places explicit CAPEX entries on the model months and
// applies the preliminary split. Entries before the model start are drawn in
// the first model month; entries after the model end are dropped.
func BuildFromEntries(assetID string, entries []Entry, maxGearing float64, funding FundingType, modelStart, modelEnd time.Time) []Row {
	rows := emptyRows(assetID, modelStart, modelEnd)
	if len(rows) == 0 {
		return rows
	}
	for _, e := range entries {
		place(rows, e.Date, e.Amount)
	}
	return splitFunding(rows, maxGearing, funding)
}

func emptyRows(assetID string, modelStart, modelEnd time.Time) []Row {
	months := datetime.MonthRange(modelStart, modelEnd)
	rows := make([]Row, len(months))
	for i, month := range months {
		rows[i] = Row{AssetID: assetID, Date: month}
	}
	return rows
}

// place adds amount to the row for date, clamping pre-horizon dates to the
// first row. rows must be non-empty.
func place(rows []Row, date time.Time, amount float64) {
	i := datetime.MonthsBetween(rows[0].Date, datetime.MonthStart(date))
	if i >= len(rows) {
		return
	}
	if i < 0 {
		i = 0
	}
	rows[i].Capex += amount
}

// splitFunding assigns debt and equity shares. equity_first funds the equity
// share of the total before any debt is drawn; pari_passu funds every month
// at maxGearing.
func splitFunding(rows []Row, maxGearing float64, funding FundingType) []Row {
	total := Total(rows)
	equityTarget := total * (1 - maxGearing)
	equityFunded := 0.0

	for i := range rows {
		spend := rows[i].Capex
		if spend == 0 {
			continue
		}
		switch funding {
		case PariPassu:
			rows[i].DebtCapex = spend * maxGearing
			rows[i].EquityCapex = spend * (1 - maxGearing)
		default:
			equity := 0.0
			if equityFunded < equityTarget {
				equity = spend
				if remaining := equityTarget - equityFunded; remaining < equity {
					equity = remaining
				}
				equityFunded += equity
			}
			rows[i].EquityCapex = equity
			rows[i].DebtCapex = spend - equity
		}
	}
	return rows
}

// ApplyRealizedSplit rewrites the debt/equity split using the realized
// gearing debt/total CAPEX, capped at 1 so equity is never negative. The
// input rows are not modified.
func ApplyRealizedSplit(rows []Row, debt float64) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	total := Total(rows)
	gearing := 0.0
	if total > 0 && debt > 0 {
		gearing = math.Min(1, debt/total)
	}
	for i := range out {
		out[i].DebtCapex = out[i].Capex * gearing
		out[i].EquityCapex = out[i].Capex * (1 - gearing)
	}
	return out
}

// Total sums CAPEX across rows.
func Total(rows []Row) float64 {
	var total float64
	for _, r := range rows {
		total += r.Capex
	}
	return total
}

// Totals returns total CAPEX, debt-funded CAPEX and equity-funded CAPEX.
func Totals(rows []Row) (capex, debt, equity float64) {
	for _, r := range rows {
		capex += r.Capex
		debt += r.DebtCapex
		equity += r.EquityCapex
	}
	return capex, debt, equity
}
