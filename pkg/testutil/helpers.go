// Package testutil provides common utility functions for testing.
package testutil

import (
	"time"

	"github.com/iwvelando/project-finance/internal/debt"
	"github.com/iwvelando/project-finance/internal/portfolio"
	"github.com/iwvelando/project-finance/pkg/datetime"
)

// FindAsset finds an asset result by id.
// Returns a pointer to the result if found, nil otherwise.
func FindAsset(result *portfolio.Result, assetID string) *portfolio.AssetResult {
	if result == nil {
		return nil
	}
	for i := range result.Assets {
		if result.Assets[i].AssetID == assetID {
			return &result.Assets[i]
		}
	}
	return nil
}

// FlatCashFlows returns months of identical cash flows starting at start.
func FlatCashFlows(start time.Time, months int, merchant, contracted, opex float64) []debt.MonthlyCashFlow {
	if months <= 0 {
		return nil
	}
	flows := make([]debt.MonthlyCashFlow, months)
	for i := range flows {
		flows[i] = debt.MonthlyCashFlow{
			Date:             datetime.AddMonths(start, i),
			MerchantEnergy:   merchant,
			ContractedEnergy: contracted,
			Opex:             opex,
		}
	}
	return flows
}

// LedgerTotals sums drawdowns and principal across ledger rows.
func LedgerTotals(rows []debt.LedgerRow) (drawdowns, principal float64) {
	for _, row := range rows {
		drawdowns += row.Drawdowns
		principal += row.Principal
	}
	return drawdowns, principal
}
