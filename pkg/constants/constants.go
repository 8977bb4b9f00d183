// Package constants provides shared constants for the project-finance debt engine.
package constants

import "time"

// DateTimeLayout is the month format expected in config files and is also the
// output date format.
const DateTimeLayout = "2006-01"

// Calendar constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// MonthsPerQuarter is the number of months in a quarter
	MonthsPerQuarter = 3
)

// Period frequency names accepted for DSCR calculation and repayment.
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnual    = "annual"
)

// Grace period policies applied to the first debt service payment.
const (
	GracePeriodNone       = "none"
	GracePeriodProrate    = "prorate"
	GracePeriodFullPeriod = "full_period"
)

// Debt sizing methods.
const (
	SizingMethodDSCR    = "dscr"
	SizingMethodAnnuity = "annuity"
)

// CAPEX funding types used for the preliminary construction split.
const (
	FundingEquityFirst = "equity_first"
	FundingPariPassu   = "pari_passu"
)

// Solver constants. Amounts are in currency-millions.
const (
	// Tolerance absorbs floating point residue in balances and debt service.
	Tolerance = 0.001

	// MaxSolverIterations bounds the primary binary search.
	MaxSolverIterations = 50

	// MaxRefinementIterations bounds the secondary search toward the gearing cap.
	MaxRefinementIterations = 10

	// MaxEarlyPayoffPeriods is how many periods before tenor end a viable
	// schedule may reach a zero balance.
	MaxEarlyPayoffPeriods = 2

	// DSCRBreachTolerance is the slack allowed when comparing realized and
	// target coverage ratios.
	DSCRBreachTolerance = 0.01
)

// Default financing assumptions applied when an asset omits them.
const (
	DefaultMaxGearing         = 0.7
	DefaultInterestRate       = 0.055
	DefaultTenorYears         = 18
	DefaultTargetDSCRContract = 1.4
	DefaultTargetDSCRMerchant = 1.8
)

// Default run-level settings.
const (
	DefaultDSCRFrequency      = FrequencyQuarterly
	DefaultRepaymentFrequency = FrequencyQuarterly
	DefaultGracePeriod        = GracePeriodProrate
	DefaultSizingMethod       = SizingMethodDSCR
	DefaultFundingType        = FundingEquityFirst
	DefaultWorkers            = 1
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix namespaces environment overrides, e.g. PF_MODEL_WORKERS.
	EnvPrefix = "PF"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (1 MB)
	DefaultMaxUploadSizeBytes int64 = 1024 * 1024

	// DefaultServerMaxWorkers caps the per-request asset concurrency
	DefaultServerMaxWorkers = 4

	// DefaultRequestTimeout bounds a single sizing request
	DefaultRequestTimeout = 30 * time.Second
)

// Presentation constants
const (
	// DecimalPlaces is the number of decimals kept when amounts leave the engine.
	DecimalPlaces = 6

	// DisplayDecimalPlaces is used for pretty output in currency-millions.
	DisplayDecimalPlaces = 3
)
