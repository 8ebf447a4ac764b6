package projection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/scenario"
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

func samplePortfolio() *domain.Portfolio {
	stockID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	return &domain.Portfolio{
		ID:      uuid.MustParse("aaaaaaaa-0000-0000-0000-0000000000ff"),
		Name:    "Household",
		Version: 1,
		Assets: []*domain.Asset{
			{
				ID: stockID, Name: "Index Fund", Type: domain.AssetTypeStock, StartDate: month(2024, 1),
				OriginalValue: dec("100000"), AppreciationRateAnnualPct: dec("7"),
				Deposits: []*domain.CashFlowEntry{
					{ID: uuid.New(), Kind: domain.CashFlowDeposit, Amount: dec("2000"), From: month(2024, 1), To: month(2026, 12), FromOwnCapital: true, TargetAssetID: &stockID},
				},
			},
			{
				ID: uuid.New(), Name: "Apartment", Type: domain.AssetTypeRealEstate, StartDate: month(2020, 1),
				OriginalValue: dec("1500000"), AppreciationRateAnnualPct: dec("3"),
			},
		},
		Loans: []*domain.Loan{
			{ID: uuid.New(), Name: "Mortgage", Type: domain.LoanTypeFixed, StartDate: month(2024, 1), OriginalValue: dec("1200000"), InterestRateAnnualPct: dec("3.5"), DurationMonths: 240},
		},
		RevenueStreams: []*domain.RevenueStream{
			{ID: uuid.New(), Name: "Salary", Type: domain.StreamTypeSalary, StartDate: month(2024, 1), Amount: dec("240000")},
			{ID: uuid.New(), Name: "Old Pension", Type: domain.StreamTypePension, StartDate: month(2024, 1), Amount: dec("100")},
		},
	}
}

func TestEngine_ProjectsWholePortfolio(t *testing.T) {
	result, err := NewEngine().Project(samplePortfolio(), nil, domain.DefaultIndexData(), window(month(2024, 1), 36), nil)
	require.NoError(t, err)

	require.Len(t, result.TotalAssets, 36)
	assert.Equal(t, month(2024, 1), result.TotalAssets[0].Date)
	assert.Equal(t, month(2026, 12), result.TotalAssets[35].Date)

	// two real assets plus accumulated cash
	require.Len(t, result.Assets, 3)
	assert.True(t, result.Assets[2].Virtual)

	// the fund's deposits compound, so it beats growth plus the plain deposit sum
	fund := result.Assets[0].Series
	require.Len(t, fund, 36)
	noDeposits := dec("100000").Mul(dec("1").Add(dec("0.07").Div(dec("12"))).Pow(dec("36")))
	assert.True(t, fund[35].Value.GreaterThan(noDeposits.Add(dec("72000"))))

	// the apartment started before the window and is clipped to it
	assert.Len(t, result.Assets[1].Series, 36)

	categories := map[domain.FlowCategory]int{}
	for _, item := range result.Breakdown.Items {
		categories[item.Category]++
	}
	assert.Equal(t, 1, categories[domain.CategoryLoanPayment])
	assert.Equal(t, 1, categories[domain.CategoryDeposit])
	assert.Equal(t, 1, categories[domain.CategorySalary])
	assert.Zero(t, categories[domain.CategoryPension], "standalone pension streams are skipped")

	for i := range result.NetWorth {
		want := result.TotalAssets[i].Value.Sub(result.TotalLiabilities[i].Value)
		assert.True(t, result.NetWorth[i].Value.Equal(want))
	}
}

func TestEngine_PensionConversion(t *testing.T) {
	conversion := month(2030, 1)
	p := &domain.Portfolio{
		ID: uuid.New(),
		Assets: []*domain.Asset{{
			ID: uuid.New(), Name: "Pension", Type: domain.AssetTypePension, StartDate: month(2029, 1),
			OriginalValue: dec("240000"), ConversionDate: &conversion, ConversionCoefficient: dec("200"),
		}},
	}

	result, err := NewEngine().Project(p, nil, domain.DefaultIndexData(), window(month(2029, 1), 24), nil)
	require.NoError(t, err)

	series := result.Assets[0].Series
	assert.True(t, series[11].Value.Equal(dec("240000")))
	for _, pt := range series[12:] {
		assert.True(t, pt.Value.IsZero())
	}
	payouts := result.Breakdown.Items[0]
	assert.Equal(t, domain.CategoryPension, payouts.Category)
	assert.True(t, payouts.Series[12].Value.Equal(dec("1200")))
	assert.True(t, payouts.Series[23].Value.Equal(dec("1200")))
}

func TestEngine_PeggedLoanWithoutIndexFails(t *testing.T) {
	p := &domain.Portfolio{
		ID: uuid.New(),
		Loans: []*domain.Loan{
			{ID: uuid.New(), Name: "Linked", Type: domain.LoanTypeCPIPegged, StartDate: month(2024, 1), OriginalValue: dec("100000"), InterestRateAnnualPct: dec("2"), DurationMonths: 120},
		},
	}

	_, err := NewEngine().Project(p, nil, domain.IndexData{}, window(month(2024, 1), 12), nil)
	assert.ErrorIs(t, err, domain.ErrIndexDataUnavailable)
	assert.Contains(t, err.Error(), `failed to project loan "Linked"`)
}

func TestEngine_EmptyScenarioMatchesBase(t *testing.T) {
	w := window(month(2024, 1), 24)
	base := samplePortfolio()

	direct, err := NewEngine().Project(base, nil, domain.DefaultIndexData(), w, nil)
	require.NoError(t, err)

	modified, deferred := scenario.NewEngine().Apply(base, nil, w, nil)
	require.Empty(t, deferred)
	viaScenario, err := NewEngine().Project(modified, nil, domain.DefaultIndexData(), w, nil)
	require.NoError(t, err)

	assert.Equal(t, direct, viaScenario)
}

func TestEngine_MarketCrashMovesTotalsByTheSameDelta(t *testing.T) {
	w := window(month(2024, 1), 24)
	base := samplePortfolio()
	crash := domain.Action{
		Type:  domain.ActionMarketCrash,
		Crash: &domain.CrashParams{CrashPct: dec("20"), CrashDate: ptr(month(2025, 1)), AffectedAssetTypes: []domain.AssetType{domain.AssetTypeStock}},
	}

	before, err := NewEngine().Project(base, nil, domain.DefaultIndexData(), w, nil)
	require.NoError(t, err)

	engine := scenario.NewEngine()
	modified, deferred := engine.Apply(base, []domain.Action{crash}, w, nil)
	after, err := NewEngine().Project(modified, nil, domain.DefaultIndexData(), w, nil)
	require.NoError(t, err)
	engine.ApplyDeferred(after, modified, deferred, nil)

	for i := range after.TotalAssets {
		old := before.Assets[0].Series[i].Value
		now := after.Assets[0].Series[i].Value
		if i < 12 {
			assert.True(t, now.Equal(old))
		} else {
			assert.True(t, now.Equal(old.Mul(dec("0.8")).Round(2)))
		}
		delta := now.Sub(old)
		assert.True(t, after.TotalAssets[i].Value.Sub(before.TotalAssets[i].Value).Equal(delta))
		assert.True(t, after.NetWorth[i].Value.Sub(before.NetWorth[i].Value).Equal(delta))
	}
}

func ptr[T any](v T) *T {
	return &v
}
