// Package output provides utilities for formatting and displaying sizing results.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/project-finance/internal/capex"
	"github.com/iwvelando/project-finance/internal/debt"
	"github.com/iwvelando/project-finance/internal/portfolio"
	"github.com/iwvelando/project-finance/pkg/datetime"
	"github.com/iwvelando/project-finance/pkg/format"
	"github.com/iwvelando/project-finance/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LedgerRecord is a ledger row rounded for output.
type LedgerRecord struct {
	AssetID          string  `json:"assetId"`
	Date             string  `json:"date"`
	BeginningBalance float64 `json:"beginningBalance"`
	Drawdowns        float64 `json:"drawdowns"`
	Interest         float64 `json:"interest"`
	Principal        float64 `json:"principal"`
	DebtService      float64 `json:"debtService"`
	EndingBalance    float64 `json:"endingBalance"`
	AccruedInterest  float64 `json:"accruedInterest"`
}

// CapexRecord is a CAPEX row rounded for output.
type CapexRecord struct {
	AssetID     string  `json:"assetId"`
	Date        string  `json:"date"`
	Capex       float64 `json:"capex"`
	DebtCapex   float64 `json:"debtCapex"`
	EquityCapex float64 `json:"equityCapex"`
}

// Report is the machine-readable form of a portfolio run.
type Report struct {
	RunID    string                  `json:"runId"`
	Method   string                  `json:"method"`
	Assets   []portfolio.AssetResult `json:"assets"`
	Ledger   []LedgerRecord          `json:"ledger"`
	Capex    []CapexRecord           `json:"capex"`
	Warnings []string                `json:"warnings,omitempty"`
	Duration string                  `json:"duration"`
}

// NewReport rounds ledger and CAPEX values for output.
func NewReport(result *portfolio.Result) Report {
	return Report{
		RunID:    result.RunID,
		Method:   result.Method,
		Assets:   result.Assets,
		Ledger:   LedgerRecords(result.Ledger),
		Capex:    CapexRecords(result.Capex),
		Warnings: result.Warnings,
		Duration: result.Duration.String(),
	}
}

// LedgerRecords converts ledger rows into rounded output records.
func LedgerRecords(rows []debt.LedgerRow) []LedgerRecord {
	records := make([]LedgerRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, LedgerRecord{
			AssetID:          row.AssetID,
			Date:             datetime.Format(row.Date),
			BeginningBalance: mathutil.RoundLedger(row.BeginningBalance),
			Drawdowns:        mathutil.RoundLedger(row.Drawdowns),
			Interest:         mathutil.RoundLedger(row.Interest),
			Principal:        mathutil.RoundLedger(row.Principal),
			DebtService:      mathutil.RoundLedger(row.DebtService),
			EndingBalance:    mathutil.RoundLedger(row.EndingBalance),
			AccruedInterest:  mathutil.RoundLedger(row.AccruedInterest),
		})
	}
	return records
}

// CapexRecords converts CAPEX rows into rounded output records.
func CapexRecords(rows []capex.Row) []CapexRecord {
	records := make([]CapexRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, CapexRecord{
			AssetID:     row.AssetID,
			Date:        datetime.Format(row.Date),
			Capex:       mathutil.RoundLedger(row.Capex),
			DebtCapex:   mathutil.RoundLedger(row.DebtCapex),
			EquityCapex: mathutil.RoundLedger(row.EquityCapex),
		})
	}
	return records
}

// PrettyFormat writes a human-readable summary and ledger per asset.
func PrettyFormat(w io.Writer, result *portfolio.Result) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "--- Sizing run %s (%s) ---\n", result.RunID, result.Method)

	for _, asset := range result.Assets {
		s := asset.Sizing
		_, _ = fmt.Fprintf(w, "\n--- Results for asset %s ---\n", asset.Name)
		_, _ = fmt.Fprintf(w, "Debt               | %s\n", format.Millions(s.OptimalDebt))
		_, _ = fmt.Fprintf(w, "Gearing            | %s\n", format.Percent(s.Gearing))
		_, _ = fmt.Fprintf(w, "Minimum DSCR       | %s\n", format.Ratio(s.MinDSCR))
		_, _ = fmt.Fprintf(w, "Debt service start | %s\n", formatDate(s))
		_, _ = fmt.Fprintf(w, "Hit gearing limit  | %t\n", s.HitGearingLimit)
		for _, warning := range asset.Warnings {
			_, _ = fmt.Fprintf(w, "Warning            | %s\n", warning)
		}

		_, _ = fmt.Fprintf(w, "Date    | Drawdowns     | Interest      | Principal     | Ending Balance\n")
		_, _ = fmt.Fprintf(w, "____    | _____________ | _____________ | _____________ | ______________\n")
		for _, row := range asset.Ledger {
			if row.BeginningBalance == 0 && row.Drawdowns == 0 && row.EndingBalance == 0 && row.DebtService == 0 {
				continue
			}
			_, _ = p.Fprintf(w, "%s | %13.3f | %13.3f | %13.3f | %14.3f\n",
				datetime.Format(row.Date), row.Drawdowns, row.Interest, row.Principal, row.EndingBalance)
		}
	}

	if len(result.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "\n--- Warnings ---\n%s\n", strings.Join(result.Warnings, "\n"))
	}
}

func formatDate(s debt.SizingResult) string {
	if s.DebtServiceStart.IsZero() {
		return "n/a"
	}
	return datetime.Format(s.DebtServiceStart)
}

// CsvFormat writes the portfolio ledger in comma-separated value format.
func CsvFormat(w io.Writer, result *portfolio.Result) {
	_, _ = fmt.Fprintf(w, `"asset_id","date","beginning_balance","drawdowns","interest","principal","debt_service","ending_balance","accrued_interest"`)
	_, _ = fmt.Fprintf(w, "\n")
	for _, r := range LedgerRecords(result.Ledger) {
		_, _ = fmt.Fprintf(w, `"%s","%s","%.6f","%.6f","%.6f","%.6f","%.6f","%.6f","%.6f"`,
			strings.ReplaceAll(r.AssetID, `"`, `""`), r.Date, r.BeginningBalance, r.Drawdowns, r.Interest,
			r.Principal, r.DebtService, r.EndingBalance, r.AccruedInterest)
		_, _ = fmt.Fprintf(w, "\n")
	}
}

// CsvString returns the CsvFormat output as a string.
func CsvString(result *portfolio.Result) string {
	var buf bytes.Buffer
	CsvFormat(&buf, result)
	return buf.String()
}

// JSONFormat writes the run as an indented JSON report.
func JSONFormat(w io.Writer, result *portfolio.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReport(result)); err != nil {
		return fmt.Errorf("failed to encode sizing report: %w", err)
	}
	return nil
}
