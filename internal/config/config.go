// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for a debt sizing run.
type Configuration struct {
	Model         ModelConfig   `mapstructure:"model" yaml:"model"`
	Assets        []AssetConfig `mapstructure:"assets" yaml:"assets"`
	CashFlowsFile string        `mapstructure:"cashFlowsFile" yaml:"cashFlowsFile,omitempty"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging,omitempty"`
	Output        OutputConfig  `mapstructure:"output" yaml:"output,omitempty"`

	// baseDir resolves a relative CashFlowsFile; empty for reader-loaded configs.
	baseDir string
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// ModelConfig holds the run-level horizon and timing policy.
type ModelConfig struct {
	StartDate          string `mapstructure:"startDate" yaml:"startDate"`
	EndDate            string `mapstructure:"endDate" yaml:"endDate"`
	DSCRFrequency      string `mapstructure:"dscrFrequency" yaml:"dscrFrequency,omitempty"`
	RepaymentFrequency string `mapstructure:"repaymentFrequency" yaml:"repaymentFrequency,omitempty"`
	GracePeriod        string `mapstructure:"gracePeriod" yaml:"gracePeriod,omitempty"`
	SizingMethod       string `mapstructure:"sizingMethod" yaml:"sizingMethod,omitempty"`
	FundingType        string `mapstructure:"fundingType" yaml:"fundingType,omitempty"`
	Workers            int    `mapstructure:"workers" yaml:"workers,omitempty"`
}

// AssetConfig holds one asset's financing assumptions and inputs. Unset
// financing fields take the package defaults.
type AssetConfig struct {
	ID                 string             `mapstructure:"id" yaml:"id"`
	Name               string             `mapstructure:"name" yaml:"name,omitempty"`
	Capex              float64            `mapstructure:"capex" yaml:"capex"`
	MaxGearing         *float64           `mapstructure:"maxGearing" yaml:"maxGearing,omitempty"`
	InterestRate       *float64           `mapstructure:"interestRate" yaml:"interestRate,omitempty"`
	TenorYears         *int               `mapstructure:"tenorYears" yaml:"tenorYears,omitempty"`
	TargetDSCRContract *float64           `mapstructure:"targetDSCRContract" yaml:"targetDSCRContract,omitempty"`
	TargetDSCRMerchant *float64           `mapstructure:"targetDSCRMerchant" yaml:"targetDSCRMerchant,omitempty"`
	ConstructionStart  string             `mapstructure:"constructionStart" yaml:"constructionStart,omitempty"`
	OperationsStart    string             `mapstructure:"operationsStart" yaml:"operationsStart"`
	FundingType        string             `mapstructure:"fundingType" yaml:"fundingType,omitempty"`
	CapexSchedule      []CapexEntryConfig `mapstructure:"capexSchedule" yaml:"capexSchedule,omitempty"`
	CashFlows          []CashFlowConfig   `mapstructure:"cashFlows" yaml:"cashFlows,omitempty"`
}

// CapexEntryConfig is one explicit month of construction spend.
type CapexEntryConfig struct {
	Date   string  `mapstructure:"date" yaml:"date"`
	Amount float64 `mapstructure:"amount" yaml:"amount"`
}

// CashFlowConfig is one month of operating cash flow in currency-millions.
type CashFlowConfig struct {
	Date             string  `mapstructure:"date" yaml:"date"`
	MerchantGreen    float64 `mapstructure:"merchantGreen" yaml:"merchantGreen,omitempty"`
	MerchantEnergy   float64 `mapstructure:"merchantEnergy" yaml:"merchantEnergy,omitempty"`
	ContractedGreen  float64 `mapstructure:"contractedGreen" yaml:"contractedGreen,omitempty"`
	ContractedEnergy float64 `mapstructure:"contractedEnergy" yaml:"contractedEnergy,omitempty"`
	Opex             float64 `mapstructure:"opex" yaml:"opex,omitempty"`
}

// DisplayName returns the asset name, falling back to its ID.
func (a AssetConfig) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.ID
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("model.dscrFrequency", constants.DefaultDSCRFrequency)
	v.SetDefault("model.repaymentFrequency", constants.DefaultRepaymentFrequency)
	v.SetDefault("model.gracePeriod", constants.DefaultGracePeriod)
	v.SetDefault("model.sizingMethod", constants.DefaultSizingMethod)
	v.SetDefault("model.fundingType", constants.DefaultFundingType)
	v.SetDefault("model.workers", constants.DefaultWorkers)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables prefixed with PF override model,
// logging and output settings, e.g. PF_MODEL_WORKERS=4.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	configuration, err := decode(v)
	if err != nil {
		return nil, err
	}
	configuration.baseDir = filepath.Dir(configPath)
	return configuration, nil
}

// LoadConfigurationFromReader loads a YAML configuration from r. A relative
// cashFlowsFile is resolved against the working directory.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// CashFlowsPath returns the resolved path of CashFlowsFile, or "" when unset.
func (c *Configuration) CashFlowsPath() string {
	path := strings.TrimSpace(c.CashFlowsFile)
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}
