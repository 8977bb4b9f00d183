// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/project-finance/pkg/datetime"
)

// ValidateTenorHorizon checks whether debt starting at operationsStart can be
// fully repaid before the model horizon ends.
func ValidateTenorHorizon(assetName, operationsStart, modelEnd string, tenorYears int) (string, error) {
	maturityDate, err := datetime.OffsetDate(operationsStart, datetime.DateTimeLayout, tenorYears*12)
	if err != nil {
		return "", err
	}

	if maturityDate > modelEnd {
		return fmt.Sprintf("Asset '%s' debt matures after model end (%s > %s) - repayment validation will use the last modelled month",
			assetName, maturityDate, modelEnd), nil
	}

	return "", nil
}

// ValidateAssetDates checks construction and operations dates against the
// model horizon. All dates use the "2006-01" layout.
func ValidateAssetDates(assetName, constructionStart, operationsStart, modelStart, modelEnd string) []string {
	var warnings []string

	if operationsStart > modelEnd {
		warnings = append(warnings, fmt.Sprintf("Asset '%s' starts operating after model end (%s > %s) - no debt will be sized",
			assetName, operationsStart, modelEnd))
	}

	if constructionStart != "" && constructionStart < modelStart {
		warnings = append(warnings, fmt.Sprintf("Asset '%s' construction starts before model start (%s < %s) - earlier spend is drawn in the first month",
			assetName, constructionStart, modelStart))
	}

	if constructionStart != "" && constructionStart == operationsStart {
		warnings = append(warnings, fmt.Sprintf("Asset '%s' has no construction period - CAPEX lands in the operations start month",
			assetName))
	}

	return warnings
}

// AssetConfig is the subset of an asset needed for cross-field checks.
type AssetConfig struct {
	Name              string
	Capex             float64
	ScheduledCapex    float64
	HasCapexSchedule  bool
	HasCashFlows      bool
	ConstructionStart string
	OperationsStart   string
	TenorYears        int
}

// ConfigValidator checks a portfolio's assets against the model horizon.
type ConfigValidator struct {
	ModelStart string
	ModelEnd   string
	Assets     []AssetConfig
}

// ValidateAll validates every asset and returns warnings.
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	for _, asset := range cv.Assets {
		warnings = append(warnings, ValidateAssetDates(asset.Name, asset.ConstructionStart, asset.OperationsStart, cv.ModelStart, cv.ModelEnd)...)

		warning, err := ValidateTenorHorizon(asset.Name, asset.OperationsStart, cv.ModelEnd, asset.TenorYears)
		if err == nil && warning != "" {
			warnings = append(warnings, warning)
		}

		if !asset.HasCashFlows {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' has no cash flows - it will be funded with 100%% equity", asset.Name))
		}

		if asset.HasCapexSchedule && !withinTolerance(asset.ScheduledCapex, asset.Capex) {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' CAPEX schedule totals %.3f but capex is %.3f - gearing is measured against capex",
				asset.Name, asset.ScheduledCapex, asset.Capex))
		}
	}

	return warnings
}

func withinTolerance(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
