package capex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestParseFundingType(t *testing.T) {
	tests := []struct {
		input    string
		expected FundingType
		wantErr  bool
	}{
		{"equity_first", EquityFirst, false},
		{" PARI_PASSU ", PariPassu, false},
		{"", EquityFirst, false},
		{"debt_first", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFundingType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildScheduleLinearDrawdown(t *testing.T) {
	plan := Plan{
		AssetID:           "wind-1",
		TotalCapex:        120,
		MaxGearing:        0.75,
		ConstructionStart: month(2025, time.January),
		OperationsStart:   month(2026, time.January),
		Funding:           PariPassu,
	}

	rows := BuildSchedule(plan, month(2024, time.July), month(2026, time.June))

	require.Len(t, rows, 24)
	for _, row := range rows {
		inWindow := !row.Date.Before(plan.ConstructionStart) && row.Date.Before(plan.OperationsStart)
		if inWindow {
			assert.InDelta(t, 10, row.Capex, 1e-12)
			assert.InDelta(t, 7.5, row.DebtCapex, 1e-12)
			assert.InDelta(t, 2.5, row.EquityCapex, 1e-12)
		} else {
			assert.Zero(t, row.Capex)
		}
		assert.Equal(t, "wind-1", row.AssetID)
	}
	assert.InDelta(t, 120, Total(rows), 1e-9)
}

func TestBuildScheduleEquityFirst(t *testing.T) {
	plan := Plan{
		AssetID:           "solar-1",
		TotalCapex:        100,
		MaxGearing:        0.7,
		ConstructionStart: month(2025, time.January),
		OperationsStart:   month(2025, time.May),
		Funding:           EquityFirst,
	}

	rows := BuildSchedule(plan, month(2025, time.January), month(2025, time.June))

	// 30 of equity is spent first: all of January and 5 of February.
	assert.InDelta(t, 25, rows[0].EquityCapex, 1e-12)
	assert.Zero(t, rows[0].DebtCapex)
	assert.InDelta(t, 5, rows[1].EquityCapex, 1e-12)
	assert.InDelta(t, 20, rows[1].DebtCapex, 1e-12)
	assert.InDelta(t, 25, rows[2].DebtCapex, 1e-12)

	capex, debt, equity := Totals(rows)
	assert.InDelta(t, 100, capex, 1e-9)
	assert.InDelta(t, 70, debt, 1e-9)
	assert.InDelta(t, 30, equity, 1e-9)
}

func TestBuildScheduleWithoutConstructionWindow(t *testing.T) {
	plan := Plan{AssetID: "a", TotalCapex: 50, MaxGearing: 0.5, OperationsStart: month(2025, time.March)}

	rows := BuildSchedule(plan, month(2025, time.January), month(2025, time.June))

	assert.Equal(t, 50.0, rows[2].Capex)
	assert.InDelta(t, 50, Total(rows), 1e-12)
}

func TestBuildScheduleDegenerate(t *testing.T) {
	rows := BuildSchedule(Plan{AssetID: "a"}, month(2025, time.January), month(2025, time.March))
	require.Len(t, rows, 3)
	assert.Zero(t, Total(rows))
}

func TestBuildFromEntries(t *testing.T) {
	entries := []Entry{
		{Date: month(2025, time.February), Amount: 40},
		{Date: time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC), Amount: 10},
		{Date: month(2023, time.January), Amount: 999},
	}

	rows := BuildFromEntries("a", entries, 0.6, PariPassu, month(2025, time.January), month(2025, time.March))

	require.Len(t, rows, 3)
	assert.Equal(t, 50.0, rows[1].Capex)
	assert.InDelta(t, 30, rows[1].DebtCapex, 1e-12)
	// The 2023 entry predates the horizon and is drawn in the first month.
	assert.Equal(t, 999.0, rows[0].Capex)
	assert.InDelta(t, 1049, Total(rows), 1e-12)
}

func TestBuildFromEntriesDropsPostHorizon(t *testing.T) {
	entries := []Entry{
		{Date: month(2025, time.March), Amount: 10},
		{Date: month(2026, time.January), Amount: 25},
	}

	rows := BuildFromEntries("a", entries, 0.6, EquityFirst, month(2025, time.January), month(2025, time.March))

	assert.InDelta(t, 10, Total(rows), 1e-12)
	assert.Empty(t, BuildFromEntries("a", entries, 0.6, EquityFirst, month(2025, time.March), month(2025, time.January)))
}

func TestBuildScheduleConstructionBeforeModelStart(t *testing.T) {
	plan := Plan{
		AssetID:           "a",
		TotalCapex:        100,
		MaxGearing:        0.8,
		ConstructionStart: month(2023, time.January),
		OperationsStart:   month(2025, time.January),
	}

	rows := BuildSchedule(plan, month(2024, time.January), month(2025, time.December))

	require.Len(t, rows, 24)
	assert.InDelta(t, 100, Total(rows), 1e-9)
	// Twelve months of 2023 spend plus January 2024's own share.
	assert.InDelta(t, 100.0/24*13, rows[0].Capex, 1e-9)
	assert.InDelta(t, 100.0/24, rows[1].Capex, 1e-9)
	assert.Zero(t, rows[12].Capex)

	updated := ApplyRealizedSplit(rows, 80)
	capex, debt, equity := Totals(updated)
	assert.InDelta(t, 100, capex, 1e-9)
	assert.InDelta(t, 80, debt, 1e-9)
	assert.InDelta(t, 20, equity, 1e-9)
	for _, row := range updated {
		assert.GreaterOrEqual(t, row.EquityCapex, 0.0)
	}
}

func TestBuildScheduleLumpBeforeModelStart(t *testing.T) {
	plan := Plan{AssetID: "a", TotalCapex: 40, MaxGearing: 0.5, OperationsStart: month(2024, time.June)}

	rows := BuildSchedule(plan, month(2025, time.January), month(2025, time.March))

	assert.Equal(t, 40.0, rows[0].Capex)
	assert.InDelta(t, 40, Total(rows), 1e-12)
}

func TestApplyRealizedSplitNeverNegativeEquity(t *testing.T) {
	rows := []Row{{Capex: 30}, {Capex: 20}}

	updated := ApplyRealizedSplit(rows, 80)

	for _, row := range updated {
		assert.Equal(t, row.Capex, row.DebtCapex)
		assert.Zero(t, row.EquityCapex)
	}
}

func TestApplyRealizedSplitReconciles(t *testing.T) {
	plan := Plan{
		AssetID:           "a",
		TotalCapex:        200,
		MaxGearing:        0.8,
		ConstructionStart: month(2025, time.January),
		OperationsStart:   month(2025, time.September),
	}
	rows := BuildSchedule(plan, month(2025, time.January), month(2025, time.December))

	updated := ApplyRealizedSplit(rows, 130)

	capex, debt, equity := Totals(updated)
	assert.InDelta(t, 200, capex, 1e-9)
	assert.InDelta(t, 130, debt, 1e-9)
	assert.InDelta(t, 70, equity, 1e-9)
	for _, row := range updated {
		assert.InDelta(t, row.Capex, row.DebtCapex+row.EquityCapex, 1e-12)
	}

	// The preliminary split is untouched.
	_, preliminaryDebt, _ := Totals(rows)
	assert.InDelta(t, 160, preliminaryDebt, 1e-9)
}

func TestApplyRealizedSplitFullEquity(t *testing.T) {
	rows := []Row{{Capex: 10, DebtCapex: 7, EquityCapex: 3}, {Capex: 5}}

	updated := ApplyRealizedSplit(rows, 0)

	for _, row := range updated {
		assert.Zero(t, row.DebtCapex)
		assert.Equal(t, row.Capex, row.EquityCapex)
	}
}
