package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/project-finance/internal/debt"
	"github.com/iwvelando/project-finance/pkg/datetime"
)

// Cash flow CSV columns. The header row is required; column order is free.
const (
	columnAssetID          = "asset_id"
	columnDate             = "date"
	columnMerchantGreen    = "merchant_green"
	columnMerchantEnergy   = "merchant_energy"
	columnContractedGreen  = "contracted_green"
	columnContractedEnergy = "contracted_energy"
	columnOpex             = "opex"
)

var requiredColumns = []string{
	columnAssetID,
	columnDate,
	columnMerchantGreen,
	columnMerchantEnergy,
	columnContractedGreen,
	columnContractedEnergy,
	columnOpex,
}

// LoadCashFlowsFile reads a cash flow CSV and groups the rows by asset ID.
func LoadCashFlowsFile(path string) (map[string][]debt.MonthlyCashFlow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cash flows file: %w", err)
	}
	defer f.Close()

	flows, err := ParseCashFlowsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flows, nil
}

// ParseCashFlowsCSV parses monthly cash flows keyed by asset ID.
func ParseCashFlowsCSV(r io.Reader) (map[string][]debt.MonthlyCashFlow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("cash flows file is empty")
		}
		return nil, fmt.Errorf("failed to read cash flows header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("cash flows file missing column %q", column)
		}
	}

	flows := make(map[string][]debt.MonthlyCashFlow)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		assetID := strings.TrimSpace(record[index[columnAssetID]])
		if assetID == "" {
			return nil, fmt.Errorf("line %d: asset_id cannot be empty", line)
		}
		date, err := datetime.ParseMonth(record[index[columnDate]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var values [5]float64
		for i, column := range requiredColumns[2:] {
			raw := strings.TrimSpace(record[index[column]])
			if raw == "" {
				continue
			}
			values[i], err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s %q: %w", line, column, raw, err)
			}
		}

		flows[assetID] = append(flows[assetID], debt.MonthlyCashFlow{
			Date:             date,
			MerchantGreen:    values[0],
			MerchantEnergy:   values[1],
			ContractedGreen:  values[2],
			ContractedEnergy: values[3],
			Opex:             values[4],
		})
	}
	return flows, nil
}
