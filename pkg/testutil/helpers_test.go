package testutil

import (
	"testing"
	"time"

	"github.com/iwvelando/project-finance/internal/debt"
	"github.com/iwvelando/project-finance/internal/portfolio"
)

func TestFindAsset(t *testing.T) {
	result := &portfolio.Result{
		Assets: []portfolio.AssetResult{
			{AssetID: "solar-1", Sizing: debt.SizingResult{OptimalDebt: 10}},
			{AssetID: "wind-1", Sizing: debt.SizingResult{OptimalDebt: 20}},
			{AssetID: "storage-1", Sizing: debt.SizingResult{OptimalDebt: 30}},
		},
	}

	tests := []struct {
		name         string
		assetID      string
		expectFound  bool
		expectedDebt float64
	}{
		{name: "Find first asset", assetID: "solar-1", expectFound: true, expectedDebt: 10},
		{name: "Find middle asset", assetID: "wind-1", expectFound: true, expectedDebt: 20},
		{name: "Find last asset", assetID: "storage-1", expectFound: true, expectedDebt: 30},
		{name: "Search for non-existent asset", assetID: "hydro-1", expectFound: false},
		{name: "Empty id", assetID: "", expectFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := FindAsset(result, tt.assetID)
			if !tt.expectFound {
				if found != nil {
					t.Errorf("expected no asset for %q, got %+v", tt.assetID, found)
				}
				return
			}
			if found == nil {
				t.Fatalf("expected asset %q but got nil", tt.assetID)
			}
			if found.Sizing.OptimalDebt != tt.expectedDebt {
				t.Errorf("expected debt %v, got %v", tt.expectedDebt, found.Sizing.OptimalDebt)
			}
		})
	}
}

func TestFindAssetReturnsPointerIntoResult(t *testing.T) {
	result := &portfolio.Result{Assets: []portfolio.AssetResult{{AssetID: "solar-1"}}}

	found := FindAsset(result, "solar-1")
	found.Name = "renamed"

	if result.Assets[0].Name != "renamed" {
		t.Error("expected FindAsset to return a pointer into the result slice")
	}
	if FindAsset(nil, "solar-1") != nil {
		t.Error("expected nil for nil result")
	}
}

func TestFlatCashFlows(t *testing.T) {
	start := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)
	flows := FlatCashFlows(start, 3, 1, 2, 0.5)

	if len(flows) != 3 {
		t.Fatalf("expected 3 flows, got %d", len(flows))
	}
	want := []time.Time{
		start,
		time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, flow := range flows {
		if !flow.Date.Equal(want[i]) {
			t.Errorf("flow %d: expected %s, got %s", i, want[i], flow.Date)
		}
		if flow.MerchantEnergy != 1 || flow.ContractedEnergy != 2 || flow.Opex != 0.5 {
			t.Errorf("flow %d: unexpected values %+v", i, flow)
		}
	}
	if FlatCashFlows(start, 0, 1, 1, 1) != nil {
		t.Error("expected nil for zero months")
	}
}

func TestLedgerTotals(t *testing.T) {
	rows := []debt.LedgerRow{
		{Drawdowns: 10},
		{Drawdowns: 5, Principal: 3},
		{Principal: 12},
	}
	drawdowns, principal := LedgerTotals(rows)
	if drawdowns != 15 || principal != 15 {
		t.Errorf("expected totals 15/15, got %v/%v", drawdowns, principal)
	}
}
