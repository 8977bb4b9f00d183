package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/project-finance/internal/capex"
	"github.com/iwvelando/project-finance/internal/debt"
	"github.com/iwvelando/project-finance/internal/portfolio"
	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/datetime"
	"go.uber.org/zap"
)

// Settings converts the model section into portfolio run settings.
func (c *Configuration) Settings() (portfolio.Settings, error) {
	start, err := datetime.ParseMonth(c.Model.StartDate)
	if err != nil {
		return portfolio.Settings{}, fmt.Errorf("model startDate: %w", err)
	}
	end, err := datetime.ParseMonth(c.Model.EndDate)
	if err != nil {
		return portfolio.Settings{}, fmt.Errorf("model endDate: %w", err)
	}
	dscrFreq, err := debt.ParseFrequency(orDefault(c.Model.DSCRFrequency, constants.DefaultDSCRFrequency))
	if err != nil {
		return portfolio.Settings{}, fmt.Errorf("model dscrFrequency: %w", err)
	}
	repaymentFreq, err := debt.ParseFrequency(orDefault(c.Model.RepaymentFrequency, constants.DefaultRepaymentFrequency))
	if err != nil {
		return portfolio.Settings{}, fmt.Errorf("model repaymentFrequency: %w", err)
	}
	grace, err := debt.ParseGracePeriod(orDefault(c.Model.GracePeriod, constants.DefaultGracePeriod))
	if err != nil {
		return portfolio.Settings{}, fmt.Errorf("model gracePeriod: %w", err)
	}

	return portfolio.Settings{
		ModelStart:         start,
		ModelEnd:           end,
		DSCRFrequency:      dscrFreq,
		RepaymentFrequency: repaymentFreq,
		GracePeriod:        grace,
		Workers:            c.Model.Workers,
	}, nil
}

// Strategy returns the debt sizing strategy named by model.sizingMethod.
func (c *Configuration) Strategy(logger *zap.Logger) (debt.Strategy, error) {
	return debt.NewStrategy(logger, c.Model.SizingMethod)
}

// Assumptions returns the asset's financing assumptions with defaults applied.
func (a AssetConfig) Assumptions() (debt.Assumptions, error) {
	operationsStart, err := optionalMonth(a.OperationsStart)
	if err != nil {
		return debt.Assumptions{}, fmt.Errorf("operationsStart: %w", err)
	}
	constructionStart, err := optionalMonth(a.ConstructionStart)
	if err != nil {
		return debt.Assumptions{}, fmt.Errorf("constructionStart: %w", err)
	}

	return debt.Assumptions{
		Capex:              a.Capex,
		MaxGearing:         floatOr(a.MaxGearing, constants.DefaultMaxGearing),
		InterestRate:       floatOr(a.InterestRate, constants.DefaultInterestRate),
		TenorYears:         intOr(a.TenorYears, constants.DefaultTenorYears),
		TargetDSCRContract: floatOr(a.TargetDSCRContract, constants.DefaultTargetDSCRContract),
		TargetDSCRMerchant: floatOr(a.TargetDSCRMerchant, constants.DefaultTargetDSCRMerchant),
		OperationsStart:    operationsStart,
		ConstructionStart:  constructionStart,
	}, nil
}

// PortfolioAssets builds the engine inputs for every asset: assumptions,
// monthly cash flows (inline rows plus any rows from cashFlowsFile) and the
// preliminary CAPEX schedule over the model horizon.
func (c *Configuration) PortfolioAssets(settings portfolio.Settings) ([]portfolio.Asset, error) {
	var fileFlows map[string][]debt.MonthlyCashFlow
	if path := c.CashFlowsPath(); path != "" {
		var err error
		fileFlows, err = LoadCashFlowsFile(path)
		if err != nil {
			return nil, err
		}
	}

	assets := make([]portfolio.Asset, 0, len(c.Assets))
	for _, ac := range c.Assets {
		assumptions, err := ac.Assumptions()
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", ac.ID, err)
		}

		flows, err := ac.monthlyCashFlows()
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", ac.ID, err)
		}
		flows = append(flows, fileFlows[ac.ID]...)

		rows, err := ac.capexRows(c.Model.FundingType, assumptions, settings.ModelStart, settings.ModelEnd)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", ac.ID, err)
		}

		assets = append(assets, portfolio.Asset{
			ID:          ac.ID,
			Name:        ac.DisplayName(),
			Assumptions: assumptions,
			CashFlows:   flows,
			Capex:       rows,
		})
	}
	return assets, nil
}

func (a AssetConfig) monthlyCashFlows() ([]debt.MonthlyCashFlow, error) {
	flows := make([]debt.MonthlyCashFlow, 0, len(a.CashFlows))
	for i, cf := range a.CashFlows {
		date, err := datetime.ParseMonth(cf.Date)
		if err != nil {
			return nil, fmt.Errorf("cashFlows[%d]: %w", i, err)
		}
		flows = append(flows, debt.MonthlyCashFlow{
			Date:             date,
			MerchantGreen:    cf.MerchantGreen,
			MerchantEnergy:   cf.MerchantEnergy,
			ContractedGreen:  cf.ContractedGreen,
			ContractedEnergy: cf.ContractedEnergy,
			Opex:             cf.Opex,
		})
	}
	return flows, nil
}

func (a AssetConfig) capexRows(modelFunding string, assumptions debt.Assumptions, modelStart, modelEnd time.Time) ([]capex.Row, error) {
	funding, err := capex.ParseFundingType(orDefault(a.FundingType, modelFunding))
	if err != nil {
		return nil, err
	}

	if len(a.CapexSchedule) == 0 {
		return capex.BuildSchedule(capex.Plan{
			AssetID:           a.ID,
			TotalCapex:        assumptions.Capex,
			MaxGearing:        assumptions.MaxGearing,
			ConstructionStart: assumptions.ConstructionStart,
			OperationsStart:   assumptions.OperationsStart,
			Funding:           funding,
		}, modelStart, modelEnd), nil
	}

	entries := make([]capex.Entry, 0, len(a.CapexSchedule))
	for i, e := range a.CapexSchedule {
		date, err := datetime.ParseMonth(e.Date)
		if err != nil {
			return nil, fmt.Errorf("capexSchedule[%d]: %w", i, err)
		}
		entries = append(entries, capex.Entry{Date: date, Amount: e.Amount})
	}
	return capex.BuildFromEntries(a.ID, entries, assumptions.MaxGearing, funding, modelStart, modelEnd), nil
}

func optionalMonth(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	return datetime.ParseMonth(value)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func floatOr(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}
