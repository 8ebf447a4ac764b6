package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAsset_Validate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		asset   Asset
		wantErr bool
		errMsg  string
	}{
		{
			name: "Stock with valid parameters should pass",
			asset: Asset{
				ID:                        uuid.New(),
				Name:                      "Index Fund",
				Type:                      AssetTypeStock,
				StartDate:                 start,
				OriginalValue:             decimal.NewFromInt(100000),
				AppreciationRateAnnualPct: decimal.NewFromInt(7),
			},
			wantErr: false,
		},
		{
			name: "Asset with empty name should fail",
			asset: Asset{
				ID:        uuid.New(),
				Type:      AssetTypeCash,
				StartDate: start,
			},
			wantErr: true,
			errMsg:  "asset name cannot be empty",
		},
		{
			name: "Unknown asset type should fail",
			asset: Asset{
				ID:        uuid.New(),
				Name:      "Gold",
				Type:      AssetType("crypto"),
				StartDate: start,
			},
			wantErr: true,
			errMsg:  "invalid asset type",
		},
		{
			name: "Appreciation above 100 percent should fail",
			asset: Asset{
				ID:                        uuid.New(),
				Name:                      "Moonshot",
				Type:                      AssetTypeStock,
				StartDate:                 start,
				AppreciationRateAnnualPct: decimal.NewFromInt(150),
			},
			wantErr: true,
			errMsg:  "rate must be between -50 and 100 percent",
		},
		{
			name: "Deposit with non-positive amount should fail",
			asset: Asset{
				ID:        uuid.New(),
				Name:      "Savings",
				Type:      AssetTypeCash,
				StartDate: start,
				Deposits: []*CashFlowEntry{
					{Kind: CashFlowDeposit, Amount: decimal.Zero, From: start, To: start},
				},
			},
			wantErr: true,
			errMsg:  "cash flow amount must be positive",
		},
		{
			name: "Sell tax above 100 percent should fail",
			asset: Asset{
				ID:         uuid.New(),
				Name:       "Apartment",
				Type:       AssetTypeRealEstate,
				StartDate:  start,
				SellTaxPct: decimal.NewFromInt(120),
			},
			wantErr: true,
			errMsg:  "sell tax must be between 0 and 100 percent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAsset_Defaults(t *testing.T) {
	a := &Asset{Name: "Pension", Type: AssetTypePension, OriginalValue: decimal.NewFromInt(1000)}

	assert.Equal(t, ExtractionSentinel, a.ExtractionDate())
	assert.Equal(t, DefaultPensionEndDate, a.PensionEndDate())
	assert.True(t, a.Coefficient().Equal(decimal.NewFromInt(200)))
	assert.True(t, a.OpeningValue().Equal(decimal.NewFromInt(1000)))

	current := decimal.NewFromInt(1500)
	sell := time.Date(2030, 5, 17, 0, 0, 0, 0, time.UTC)
	a.CurrentValue = &current
	a.SellDate = &sell

	assert.True(t, a.OpeningValue().Equal(current), "current value should override original value")
	assert.Equal(t, time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), a.ExtractionDate())
}

func TestAsset_CloneIsIndependent(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	original := &Asset{
		ID:        uuid.New(),
		Name:      "Brokerage",
		Type:      AssetTypeStock,
		StartDate: start,
		Deposits: []*CashFlowEntry{
			{Kind: CashFlowDeposit, Amount: decimal.NewFromInt(100), From: start, To: start},
		},
		RevenueStream: &RevenueStream{Type: StreamTypeDividend, DividendYield: decimal.NewFromInt(2)},
	}

	clone := original.Clone()
	clone.Name = "Changed"
	clone.Deposits[0].Amount = decimal.NewFromInt(999)
	clone.Deposits = append(clone.Deposits, &CashFlowEntry{Kind: CashFlowDeposit, Amount: decimal.NewFromInt(1)})
	clone.RevenueStream.DividendYield = decimal.NewFromInt(9)

	assert.Equal(t, "Brokerage", original.Name)
	assert.Len(t, original.Deposits, 1)
	assert.True(t, original.Deposits[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, original.RevenueStream.DividendYield.Equal(decimal.NewFromInt(2)))
}

func TestAsset_LatestHistory(t *testing.T) {
	a := &Asset{History: []ValuePoint{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(3)},
		{Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(6)},
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(1)},
	}}

	latest, ok := a.LatestHistory()
	assert.True(t, ok)
	assert.True(t, latest.Value.Equal(decimal.NewFromInt(6)))

	_, ok = (&Asset{}).LatestHistory()
	assert.False(t, ok)
}
