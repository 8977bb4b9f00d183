package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/project-finance/internal/capex"
	"github.com/iwvelando/project-finance/internal/debt"
	"github.com/iwvelando/project-finance/pkg/datetime"
	"github.com/iwvelando/project-finance/pkg/validation"
)

// ValidateConfiguration checks the configuration. It returns an error for
// input the engine cannot run on and warnings for input that will run but
// probably not as intended.
func (c *Configuration) ValidateConfiguration() ([]string, error) {
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	if settings.ModelEnd.Before(settings.ModelStart) {
		return nil, fmt.Errorf("model endDate %s is before startDate %s", c.Model.EndDate, c.Model.StartDate)
	}
	if _, err := c.Strategy(nil); err != nil {
		return nil, fmt.Errorf("model sizingMethod: %w", err)
	}
	if _, err := capex.ParseFundingType(c.Model.FundingType); err != nil {
		return nil, fmt.Errorf("model fundingType: %w", err)
	}
	if c.Model.Workers < 0 {
		return nil, fmt.Errorf("model workers cannot be negative, got %d", c.Model.Workers)
	}
	if len(c.Assets) == 0 {
		return nil, fmt.Errorf("configuration must define at least one asset")
	}

	var warnings []string
	hasFile := c.CashFlowsPath() != ""
	seen := make(map[string]bool, len(c.Assets))
	validator := validation.ConfigValidator{
		ModelStart: datetime.Format(settings.ModelStart),
		ModelEnd:   datetime.Format(settings.ModelEnd),
	}

	for i, ac := range c.Assets {
		if strings.TrimSpace(ac.ID) == "" {
			return nil, fmt.Errorf("assets[%d]: id is required", i)
		}
		if seen[ac.ID] {
			return nil, fmt.Errorf("assets[%d]: duplicate asset id %q", i, ac.ID)
		}
		seen[ac.ID] = true

		a, err := ac.Assumptions()
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", ac.ID, err)
		}
		if err := checkAssumptions(a); err != nil {
			return nil, fmt.Errorf("asset %s: %w", ac.ID, err)
		}
		if _, err := capex.ParseFundingType(ac.FundingType); err != nil {
			return nil, fmt.Errorf("asset %s: %w", ac.ID, err)
		}

		var scheduled float64
		for _, e := range ac.CapexSchedule {
			scheduled += e.Amount
		}

		if a.OperationsStart.IsZero() {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' has no operations start - it will be funded with 100%% equity", ac.DisplayName()))
			continue
		}
		entry := validation.AssetConfig{
			Name:             ac.DisplayName(),
			Capex:            a.Capex,
			ScheduledCapex:   scheduled,
			HasCapexSchedule: len(ac.CapexSchedule) > 0,
			HasCashFlows:     len(ac.CashFlows) > 0 || hasFile,
			OperationsStart:  datetime.Format(a.OperationsStart),
			TenorYears:       a.TenorYears,
		}
		if !a.ConstructionStart.IsZero() {
			entry.ConstructionStart = datetime.Format(a.ConstructionStart)
		}
		validator.Assets = append(validator.Assets, entry)
	}
	warnings = append(warnings, validator.ValidateAll()...)

	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return nil, err
		}
	}
	return warnings, nil
}

func checkAssumptions(a debt.Assumptions) error {
	switch {
	case a.Capex < 0:
		return fmt.Errorf("capex cannot be negative, got %v", a.Capex)
	case a.MaxGearing < 0 || a.MaxGearing > 1:
		return fmt.Errorf("maxGearing must be between 0 and 1, got %v", a.MaxGearing)
	case a.InterestRate < 0:
		return fmt.Errorf("interestRate cannot be negative, got %v", a.InterestRate)
	case a.TenorYears <= 0:
		return fmt.Errorf("tenorYears must be positive, got %d", a.TenorYears)
	case a.TargetDSCRContract <= 0 || a.TargetDSCRMerchant <= 0:
		return fmt.Errorf("DSCR targets must be positive, got contract %v merchant %v", a.TargetDSCRContract, a.TargetDSCRMerchant)
	case !a.ConstructionStart.IsZero() && !a.OperationsStart.IsZero() && a.OperationsStart.Before(a.ConstructionStart):
		return fmt.Errorf("operationsStart %s is before constructionStart %s",
			datetime.Format(a.OperationsStart), datetime.Format(a.ConstructionStart))
	}
	return nil
}
