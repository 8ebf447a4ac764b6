package aggregator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func window(start time.Time, months int) domain.Window {
	return domain.Window{Start: start, End: domain.AddMonths(start, months), Months: months}
}

// rows builds a series with one row per value; cash flows default to zero
func rows(id uuid.UUID, start time.Time, values ...string) domain.Series {
	s := domain.Series{EntityID: id}
	for i, v := range values {
		s.Rows = append(s.Rows, domain.Row{Date: domain.AddMonths(start, i), Value: dec(v)})
	}
	return s
}

func stock(name string, start time.Time) *domain.Asset {
	return &domain.Asset{ID: uuid.New(), Name: name, Type: domain.AssetTypeStock, StartDate: start, OriginalValue: dec("1000")}
}

func values(pts []domain.Point) []string {
	out := make([]string, len(pts))
	for i, p := range pts {
		out[i] = p.Value.String()
	}
	return out
}

func TestAggregate_TotalsAndAccumulatedCash(t *testing.T) {
	start := month(2024, 1)
	fund := stock("Fund", start)
	fundSeries := rows(fund.ID, start, "1100", "1200", "1300")
	for i := range fundSeries.Rows {
		fundSeries.Rows[i].CashFlow = dec("-100")
		fundSeries.Rows[i].Flows.OwnCapitalDeposit = dec("100")
	}

	mortgage := &domain.Loan{ID: uuid.New(), Name: "Mortgage", Type: domain.LoanTypeFixed, StartDate: start}
	loanSeries := rows(mortgage.ID, start, "-900", "-800", "-700")
	for i := range loanSeries.Rows {
		loanSeries.Rows[i].CashFlow = dec("-110")
	}

	salary := &domain.RevenueStream{ID: uuid.New(), Name: "Salary", Type: domain.StreamTypeSalary}
	salarySeries := rows(salary.ID, start, "0")
	salarySeries.Rows[0].CashFlow = dec("1200")

	result := Aggregate(Input{
		Window:  window(start, 3),
		Assets:  []AssetResult{{Asset: fund, Series: fundSeries}},
		Loans:   []LoanResult{{Loan: mortgage, Series: loanSeries}},
		Streams: []StreamResult{{Stream: salary, Series: salarySeries}},
	})

	require.Len(t, result.Breakdown.Items, 3)
	assert.Equal(t, domain.CategoryLoanPayment, result.Breakdown.Items[0].Category)
	assert.Equal(t, "Fund - Own Capital", result.Breakdown.Items[1].SourceName)
	assert.Equal(t, domain.CategorySalary, result.Breakdown.Items[2].Category)

	assert.Equal(t, []string{"1200", "0", "0"}, values(result.Breakdown.TotalIncome))
	assert.Equal(t, []string{"210", "210", "210"}, values(result.Breakdown.TotalExpense))
	assert.Equal(t, []string{"990", "-210", "-210"}, values(result.NetCashFlow))

	require.Len(t, result.Assets, 2)
	virtual := result.Assets[1]
	assert.True(t, virtual.Virtual)
	assert.Equal(t, uuid.Nil, virtual.AssetID)
	assert.Equal(t, []string{"990", "780", "570"}, values(virtual.Series))

	assert.Equal(t, []string{"2090", "1980", "1870"}, values(result.TotalAssets))
	assert.Equal(t, []string{"900", "800", "700"}, values(result.TotalLiabilities))
	assert.Equal(t, []string{"1190", "1180", "1170"}, values(result.NetWorth))

	require.Len(t, result.Loans, 1)
	assert.Equal(t, []string{"900", "800", "700"}, values(result.Loans[0].Balance))
	assert.Equal(t, []string{"110", "110", "110"}, values(result.Loans[0].Payments))
}

func TestAggregate_ClipsToWindowAndUnifiesAxis(t *testing.T) {
	older := stock("Older", month(2023, 11))
	newer := stock("Newer", month(2024, 3))

	result := Aggregate(Input{
		Window: window(month(2024, 1), 4),
		Assets: []AssetResult{
			{Asset: older, Series: rows(older.ID, month(2023, 11), "1", "2", "3", "4", "5", "6", "7", "8")},
			{Asset: newer, Series: rows(newer.ID, month(2024, 3), "10", "20", "30")},
		},
	})

	assert.Equal(t, []string{"3", "4", "5", "6"}, values(result.Assets[0].Series))
	assert.Equal(t, []string{"10", "20"}, values(result.Assets[1].Series))
	assert.Equal(t, []string{"3", "4", "15", "26"}, values(result.TotalAssets))
	for _, pt := range result.TotalAssets {
		assert.True(t, !pt.Date.Before(month(2024, 1)) && pt.Date.Before(month(2024, 5)))
	}
}

func TestAggregate_EmptyPortfolioUsesWindowMonths(t *testing.T) {
	result := Aggregate(Input{Window: window(month(2024, 1), 6)})

	require.Len(t, result.TotalAssets, 6)
	assert.Equal(t, month(2024, 6), result.TotalAssets[5].Date)
	assert.Empty(t, result.Breakdown.Items)
	assert.Equal(t, []string{"0", "0", "0", "0", "0", "0"}, values(result.NetWorth))
}

func TestAggregate_MeasurementShifts(t *testing.T) {
	start := month(2024, 1)
	fund := stock("Fund", start)
	mortgage := &domain.Loan{ID: uuid.New(), Name: "Mortgage", Type: domain.LoanTypeFixed, StartDate: start}

	tests := []struct {
		name         string
		measurements []domain.Measurement
		wantAsset    []string
		wantBalance  []string
		wantMarkers  int
	}{
		{
			name: "Asset measurement shifts the matched month and later",
			measurements: []domain.Measurement{
				{EntityType: domain.EntityTypeAsset, EntityID: fund.ID, Date: time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), ActualValue: dec("1250")},
			},
			wantAsset:   []string{"1100", "1250", "1350", "1450"},
			wantBalance: []string{"900", "800", "700", "600"},
			wantMarkers: 1,
		},
		{
			name: "Loan measurement shifts the balance magnitude",
			measurements: []domain.Measurement{
				{EntityType: domain.EntityTypeLoan, EntityID: mortgage.ID, Date: month(2024, 3), ActualValue: dec("750")},
			},
			wantAsset:   []string{"1100", "1200", "1300", "1400"},
			wantBalance: []string{"900", "800", "750", "650"},
			wantMarkers: 1,
		},
		{
			name: "Measurement equal to the projection changes nothing",
			measurements: []domain.Measurement{
				{EntityType: domain.EntityTypeAsset, EntityID: fund.ID, Date: month(2024, 3), ActualValue: dec("1300")},
			},
			wantAsset:   []string{"1100", "1200", "1300", "1400"},
			wantBalance: []string{"900", "800", "700", "600"},
			wantMarkers: 1,
		},
		{
			name: "Measurement after the series still yields a marker",
			measurements: []domain.Measurement{
				{EntityType: domain.EntityTypeAsset, EntityID: fund.ID, Date: month(2030, 1), ActualValue: dec("1")},
			},
			wantAsset:   []string{"1100", "1200", "1300", "1400"},
			wantBalance: []string{"900", "800", "700", "600"},
			wantMarkers: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assetSeries := rows(fund.ID, start, "1100", "1200", "1300", "1400")
			result := Aggregate(Input{
				Window:       window(start, 4),
				Assets:       []AssetResult{{Asset: fund, Series: assetSeries}},
				Loans:        []LoanResult{{Loan: mortgage, Series: rows(mortgage.ID, start, "-900", "-800", "-700", "-600")}},
				Measurements: tt.measurements,
			})

			assert.Equal(t, tt.wantAsset, values(result.Assets[0].Series))
			assert.Equal(t, tt.wantBalance, values(result.Loans[0].Balance))
			assert.Len(t, result.Markers, tt.wantMarkers)
			assert.Equal(t, "1100", assetSeries.Rows[0].Value.String(), "input series are not modified")
		})
	}
}

func TestAggregate_MeasurementBeforeWindow(t *testing.T) {
	start := month(2023, 1)
	fund := stock("Fund", start)
	mortgage := &domain.Loan{ID: uuid.New(), Name: "Mortgage", Type: domain.LoanTypeFixed, StartDate: start}

	tests := []struct {
		name        string
		measurement domain.Measurement
		wantAsset   []string
		wantBalance []string
	}{
		{
			name:        "Measurement equal to its own month leaves the window alone",
			measurement: domain.Measurement{EntityType: domain.EntityTypeAsset, EntityID: fund.ID, Date: month(2023, 2), ActualValue: dec("1010")},
			wantAsset:   []string{"1060", "1070", "1080"},
			wantBalance: []string{"400", "300", "200"},
		},
		{
			name:        "Asset delta is taken at the measured month",
			measurement: domain.Measurement{EntityType: domain.EntityTypeAsset, EntityID: fund.ID, Date: month(2023, 2), ActualValue: dec("1060")},
			wantAsset:   []string{"1110", "1120", "1130"},
			wantBalance: []string{"400", "300", "200"},
		},
		{
			name:        "Loan delta is taken at the measured month",
			measurement: domain.Measurement{EntityType: domain.EntityTypeLoan, EntityID: mortgage.ID, Date: month(2023, 3), ActualValue: dec("850")},
			wantAsset:   []string{"1060", "1070", "1080"},
			wantBalance: []string{"450", "350", "250"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Aggregate(Input{
				Window: window(month(2023, 7), 3),
				Assets: []AssetResult{{Asset: fund, Series: rows(fund.ID, start,
					"1000", "1010", "1020", "1030", "1040", "1050", "1060", "1070", "1080")}},
				Loans: []LoanResult{{Loan: mortgage, Series: rows(mortgage.ID, start,
					"-1000", "-900", "-800", "-700", "-600", "-500", "-400", "-300", "-200")}},
				Measurements: []domain.Measurement{tt.measurement},
			})

			assert.Equal(t, tt.wantAsset, values(result.Assets[0].Series))
			assert.Equal(t, tt.wantBalance, values(result.Loans[0].Balance))
			assert.Len(t, result.Markers, 1)
		})
	}
}

func TestAggregate_MeasurementMarkersCarryEntityName(t *testing.T) {
	start := month(2024, 1)
	fund := stock("Fund", start)
	m := domain.Measurement{EntityType: domain.EntityTypeAsset, EntityID: fund.ID, Date: month(2024, 2), ActualValue: dec("5")}

	result := Aggregate(Input{
		Window:       window(start, 2),
		Assets:       []AssetResult{{Asset: fund, Series: rows(fund.ID, start, "1", "2")}},
		Measurements: []domain.Measurement{m},
	})

	require.Len(t, result.Assets[0].Measurements, 1)
	assert.Equal(t, "Fund", result.Assets[0].Measurements[0].EntityName)
	assert.Equal(t, result.Markers, result.Assets[0].Measurements)
}

func TestAggregate_CashConversions(t *testing.T) {
	start := month(2024, 1)
	cash := &domain.Asset{ID: uuid.New(), Name: "Checking", Type: domain.AssetTypeCash, StartDate: start, OriginalValue: dec("50000")}
	bought := stock("Bought", month(2024, 2))
	bought.OriginalValue = dec("10000")
	sold := stock("Sold", month(2020, 1))
	sell := month(2024, 3)
	sold.SellDate = &sell
	sold.SellTaxPct = dec("25")

	// the projector zeroes the extraction row, proceeds use the last value before it
	soldSeries := rows(sold.ID, start, "20000", "20000", "0")

	result := Aggregate(Input{
		Window: window(start, 4),
		Assets: []AssetResult{
			{Asset: cash, Series: rows(cash.ID, start, "50000", "50000", "50000", "50000")},
			{Asset: bought, Series: rows(bought.ID, month(2024, 2), "10000", "10000", "10000")},
			{Asset: sold, Series: soldSeries},
		},
	})

	assert.Equal(t, []string{"50000", "40000", "55000", "55000"}, values(result.Assets[0].Series))
}

func TestAggregate_StandaloneCashFlows(t *testing.T) {
	start := month(2024, 1)
	fund := stock("Fund", start)
	cashFlows := []*domain.CashFlowEntry{
		{Name: "Gift", Kind: domain.CashFlowDeposit, Amount: dec("300"), From: month(2024, 2), To: month(2024, 2)},
		{Name: "Savings", Kind: domain.CashFlowDeposit, FromOwnCapital: true, Amount: dec("100"), From: start, To: month(2024, 3)},
		{Name: "Tuition", Kind: domain.CashFlowWithdrawal, Amount: dec("50"), From: month(2024, 3), To: month(2024, 3)},
	}

	result := Aggregate(Input{
		Window:    window(start, 3),
		Assets:    []AssetResult{{Asset: fund, Series: rows(fund.ID, start, "1", "1", "1")}},
		CashFlows: cashFlows,
	})

	require.Len(t, result.Breakdown.Items, 3)
	assert.Equal(t, domain.CategoryExternalDeposit, result.Breakdown.Items[0].Category)
	assert.Equal(t, domain.FlowIncome, result.Breakdown.Items[0].Direction)
	assert.Equal(t, domain.CategoryDeposit, result.Breakdown.Items[1].Category)
	assert.Equal(t, domain.CategoryWithdrawal, result.Breakdown.Items[2].Category)
	assert.Equal(t, domain.FlowExpense, result.Breakdown.Items[2].Direction)
	assert.Equal(t, []string{"-100", "200", "-150"}, values(result.Breakdown.Net))
}

func TestAggregate_AttachedStreamAndPensionItems(t *testing.T) {
	start := month(2024, 1)
	house := &domain.Asset{
		ID: uuid.New(), Name: "Flat", Type: domain.AssetTypeRealEstate, StartDate: start,
		RevenueStream: &domain.RevenueStream{ID: uuid.New(), Type: domain.StreamTypeRent},
	}
	houseSeries := rows(house.ID, start, "100", "100")
	houseSeries.Rows[1].CashFlow = dec("4000")
	houseSeries.Rows[1].Flows.Revenue = dec("4000")

	pension := &domain.Asset{ID: uuid.New(), Name: "Pension", Type: domain.AssetTypePension, StartDate: start}
	pensionSeries := rows(pension.ID, start, "0", "0")
	for i := range pensionSeries.Rows {
		pensionSeries.Rows[i].CashFlow = dec("1500")
		pensionSeries.Rows[i].Flows.PensionPayout = dec("1500")
	}

	result := Aggregate(Input{
		Window: window(start, 2),
		Assets: []AssetResult{{Asset: house, Series: houseSeries}, {Asset: pension, Series: pensionSeries}},
	})

	require.Len(t, result.Breakdown.Items, 2)
	assert.Equal(t, "Flat - Rent", result.Breakdown.Items[0].SourceName)
	assert.Equal(t, domain.CategoryRent, result.Breakdown.Items[0].Category)
	assert.Equal(t, "Pension - Pension", result.Breakdown.Items[1].SourceName)
	assert.Equal(t, []string{"1500", "5500"}, values(result.Breakdown.TotalIncome))
}
