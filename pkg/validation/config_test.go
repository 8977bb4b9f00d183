package validation

import (
	"strings"
	"testing"
)

func TestValidateTenorHorizon(t *testing.T) {
	tests := []struct {
		name            string
		operationsStart string
		modelEnd        string
		tenorYears      int
		expectWarn      bool
		expectError     bool
	}{
		{
			name:            "Debt matures inside horizon",
			operationsStart: "2026-01",
			modelEnd:        "2045-12",
			tenorYears:      18,
			expectWarn:      false,
		},
		{
			name:            "Debt matures after horizon",
			operationsStart: "2026-01",
			modelEnd:        "2035-12",
			tenorYears:      18,
			expectWarn:      true,
		},
		{
			name:            "Debt matures exactly at model end",
			operationsStart: "2026-01",
			modelEnd:        "2036-01",
			tenorYears:      10,
			expectWarn:      false,
		},
		{
			name:            "Invalid operations start",
			operationsStart: "January 2026",
			modelEnd:        "2036-01",
			tenorYears:      10,
			expectError:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, err := ValidateTenorHorizon("Solar", tt.operationsStart, tt.modelEnd, tt.tenorYears)

			if tt.expectError {
				if err == nil {
					t.Errorf("ValidateTenorHorizon() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateTenorHorizon() unexpected error = %v", err)
			}
			if tt.expectWarn && warning == "" {
				t.Errorf("ValidateTenorHorizon() expected warning but got none")
			}
			if !tt.expectWarn && warning != "" {
				t.Errorf("ValidateTenorHorizon() unexpected warning = %s", warning)
			}
		})
	}
}

func TestValidateAssetDates(t *testing.T) {
	tests := []struct {
		name              string
		constructionStart string
		operationsStart   string
		expectedWarnings  int
	}{
		{
			name:              "Dates inside horizon",
			constructionStart: "2025-03",
			operationsStart:   "2026-01",
			expectedWarnings:  0,
		},
		{
			name:              "Operations after model end",
			constructionStart: "2025-03",
			operationsStart:   "2041-01",
			expectedWarnings:  1,
		},
		{
			name:              "Construction before model start",
			constructionStart: "2024-06",
			operationsStart:   "2026-01",
			expectedWarnings:  1,
		},
		{
			name:              "No construction period",
			constructionStart: "2026-01",
			operationsStart:   "2026-01",
			expectedWarnings:  1,
		},
		{
			name:              "Construction start omitted",
			constructionStart: "",
			operationsStart:   "2026-01",
			expectedWarnings:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateAssetDates("Solar", tt.constructionStart, tt.operationsStart, "2025-01", "2040-12")
			if len(warnings) != tt.expectedWarnings {
				t.Errorf("ValidateAssetDates() returned %d warnings, expected %d: %v", len(warnings), tt.expectedWarnings, warnings)
			}
		})
	}
}

func TestConfigValidator_ValidateAll(t *testing.T) {
	cv := &ConfigValidator{
		ModelStart: "2025-01",
		ModelEnd:   "2040-12",
		Assets: []AssetConfig{
			{
				Name:              "Clean",
				Capex:             100,
				HasCashFlows:      true,
				ConstructionStart: "2025-01",
				OperationsStart:   "2026-01",
				TenorYears:        10,
			},
			{
				Name:              "Idle",
				Capex:             100,
				HasCashFlows:      false,
				ConstructionStart: "2025-01",
				OperationsStart:   "2026-01",
				TenorYears:        10,
			},
			{
				Name:              "Mismatched",
				Capex:             100,
				ScheduledCapex:    90,
				HasCapexSchedule:  true,
				HasCashFlows:      true,
				ConstructionStart: "2025-01",
				OperationsStart:   "2026-01",
				TenorYears:        20,
			},
		},
	}

	warnings := cv.ValidateAll()
	if len(warnings) != 3 {
		t.Fatalf("ValidateAll() returned %d warnings, expected 3: %v", len(warnings), warnings)
	}

	joined := strings.Join(warnings, "\n")
	for _, want := range []string{"'Idle' has no cash flows", "'Mismatched' CAPEX schedule", "'Mismatched' debt matures after model end"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected warning containing %q in %v", want, warnings)
		}
	}
}
