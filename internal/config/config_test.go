package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/project-finance/internal/debt"
	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/datetime"
)

const testConfigPath = "testdata/portfolio.yaml"

func loadFromString(t *testing.T, data string) *Configuration {
	t.Helper()
	conf, err := LoadConfigurationFromReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	return conf
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Portfolio fixture",
			configPath: testConfigPath,
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationFields(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Model.StartDate != "2025-01" || conf.Model.EndDate != "2032-12" {
		t.Errorf("unexpected model horizon %s..%s", conf.Model.StartDate, conf.Model.EndDate)
	}
	if conf.Model.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", conf.Model.Workers)
	}
	if len(conf.Assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(conf.Assets))
	}

	solar := conf.Assets[0]
	if solar.MaxGearing == nil || *solar.MaxGearing != 0.75 {
		t.Errorf("expected solar maxGearing 0.75, got %v", solar.MaxGearing)
	}
	if solar.TargetDSCRContract == nil || *solar.TargetDSCRContract != 1.3 {
		t.Errorf("expected solar contract DSCR 1.3, got %v", solar.TargetDSCRContract)
	}

	wind := conf.Assets[1]
	if wind.MaxGearing != nil {
		t.Errorf("expected wind maxGearing unset, got %v", *wind.MaxGearing)
	}
	if len(wind.CapexSchedule) != 3 {
		t.Errorf("expected 3 capex entries, got %d", len(wind.CapexSchedule))
	}

	storage := conf.Assets[2]
	if len(storage.CashFlows) != 2 || storage.CashFlows[0].MerchantEnergy != 0.4 {
		t.Errorf("unexpected inline cash flows %+v", storage.CashFlows)
	}
	if storage.DisplayName() != "storage-1" {
		t.Errorf("expected display name to fall back to id, got %s", storage.DisplayName())
	}

	if got, want := conf.CashFlowsPath(), filepath.Join("testdata", "cashflows.csv"); got != want {
		t.Errorf("CashFlowsPath() = %s, want %s", got, want)
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	conf := loadFromString(t, `
model:
  startDate: "2025-01"
  endDate: "2030-12"
assets:
  - id: a
    capex: 10
    operationsStart: "2026-01"
`)

	if conf.Model.DSCRFrequency != "quarterly" || conf.Model.RepaymentFrequency != "quarterly" {
		t.Errorf("unexpected default frequencies %s/%s", conf.Model.DSCRFrequency, conf.Model.RepaymentFrequency)
	}
	if conf.Model.GracePeriod != "prorate" {
		t.Errorf("expected default grace period prorate, got %s", conf.Model.GracePeriod)
	}
	if conf.Model.SizingMethod != "dscr" {
		t.Errorf("expected default sizing method dscr, got %s", conf.Model.SizingMethod)
	}
	if conf.Model.Workers != 1 {
		t.Errorf("expected default workers 1, got %d", conf.Model.Workers)
	}
	if conf.Output.Format != "pretty" {
		t.Errorf("expected default output format pretty, got %s", conf.Output.Format)
	}
	if conf.CashFlowsPath() != "" {
		t.Errorf("expected no cash flows path, got %s", conf.CashFlowsPath())
	}
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("PF_MODEL_WORKERS", "6")
	t.Setenv("PF_MODEL_GRACEPERIOD", "full_period")

	conf := loadFromString(t, `
model:
  startDate: "2025-01"
  endDate: "2030-12"
  workers: 2
`)

	if conf.Model.Workers != 6 {
		t.Errorf("expected env override of 6 workers, got %d", conf.Model.Workers)
	}
	if conf.Model.GracePeriod != "full_period" {
		t.Errorf("expected env override of grace period, got %s", conf.Model.GracePeriod)
	}
}

func TestLoadConfigurationInvalidYAML(t *testing.T) {
	_, err := LoadConfigurationFromReader(strings.NewReader("model: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestSettings(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	settings, err := conf.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if !settings.ModelStart.Equal(datetime.MustParseTime(DateTimeLayout, "2025-01")) {
		t.Errorf("unexpected model start %v", settings.ModelStart)
	}
	if settings.DSCRFrequency != debt.Quarterly || settings.GracePeriod != debt.GraceProrate {
		t.Errorf("unexpected timing settings %+v", settings)
	}
	if settings.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", settings.Workers)
	}
}

func TestAssumptionsDefaults(t *testing.T) {
	a, err := AssetConfig{ID: "a", Capex: 10, OperationsStart: "2026-03"}.Assumptions()
	if err != nil {
		t.Fatalf("Assumptions() error = %v", err)
	}
	if a.MaxGearing != 0.7 || a.InterestRate != 0.055 || a.TenorYears != 18 {
		t.Errorf("unexpected defaults %+v", a)
	}
	if a.TargetDSCRContract != 1.4 || a.TargetDSCRMerchant != 1.8 {
		t.Errorf("unexpected default DSCR targets %+v", a)
	}
	if !a.ConstructionStart.IsZero() {
		t.Errorf("expected zero construction start, got %v", a.ConstructionStart)
	}

	if _, err := (AssetConfig{ID: "a", OperationsStart: "March"}).Assumptions(); err == nil {
		t.Error("expected error for invalid operations start")
	}
}

func TestPortfolioAssets(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	settings, err := conf.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}

	assets, err := conf.PortfolioAssets(settings)
	if err != nil {
		t.Fatalf("PortfolioAssets() error = %v", err)
	}
	if len(assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(assets))
	}

	months := len(datetime.MonthRange(settings.ModelStart, settings.ModelEnd))
	for _, asset := range assets {
		if len(asset.Capex) != months {
			t.Errorf("asset %s: expected %d capex rows, got %d", asset.ID, months, len(asset.Capex))
		}
	}

	solar := assets[0]
	if solar.Name != "Sunny Ridge Solar" {
		t.Errorf("unexpected name %s", solar.Name)
	}
	if len(solar.CashFlows) != 72 {
		t.Errorf("expected 72 months of solar cash flow, got %d", len(solar.CashFlows))
	}
	if solar.Assumptions.MaxGearing != 0.75 {
		t.Errorf("expected solar gearing 0.75, got %v", solar.Assumptions.MaxGearing)
	}

	wind := assets[1]
	if wind.Assumptions.MaxGearing != 0.7 {
		t.Errorf("expected default gearing for wind, got %v", wind.Assumptions.MaxGearing)
	}
	var windCapex, windDebt float64
	for _, row := range wind.Capex {
		windCapex += row.Capex
		windDebt += row.DebtCapex
	}
	if windCapex != 40 {
		t.Errorf("expected wind capex schedule total 40, got %v", windCapex)
	}
	if diff := windDebt - 28; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected pari passu debt capex 28, got %v", windDebt)
	}

	storage := assets[2]
	if len(storage.CashFlows) != 2 {
		t.Errorf("expected 2 inline storage cash flows, got %d", len(storage.CashFlows))
	}
}

func TestPortfolioAssetsMissingCashFlowsFile(t *testing.T) {
	conf := loadFromString(t, `
model:
  startDate: "2025-01"
  endDate: "2030-12"
cashFlowsFile: testdata/missing.csv
assets:
  - id: a
    capex: 10
    operationsStart: "2026-01"
`)
	settings, err := conf.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if _, err := conf.PortfolioAssets(settings); err == nil {
		t.Fatal("expected error for missing cash flows file")
	}
}

func TestExampleConfiguration(t *testing.T) {
	conf, err := LoadConfiguration(filepath.Join("..", "..", constants.ExampleConfigFile))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	warnings, err := conf.ValidateConfiguration()
	if err != nil {
		t.Fatalf("ValidateConfiguration() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for the example configuration, got %v", warnings)
	}
	if len(conf.Assets) != 2 {
		t.Errorf("expected 2 assets, got %d", len(conf.Assets))
	}
}
