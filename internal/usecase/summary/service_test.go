package summary

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPortfolioRepository is a mock implementation of PortfolioRepository for testing
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

func date(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPortfolioRepository)
	service := NewSummaryService(mockRepo)
	service.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

	current := dec("12000")
	balance := dec("60000")
	ended := date(2023, 12)
	p := &domain.Portfolio{
		ID: uuid.New(),
		Assets: []*domain.Asset{
			{ID: uuid.New(), Name: "Savings", Type: domain.AssetTypeCash, OriginalValue: dec("10000"), CurrentValue: &current},
			{
				ID: uuid.New(), Name: "Flat", Type: domain.AssetTypeRealEstate, OriginalValue: dec("5000"),
				RevenueStream: &domain.RevenueStream{Type: domain.StreamTypeRent, StartDate: date(2020, 1), Amount: dec("3000"), Period: domain.PeriodQuarterly, TaxRate: dec("10")},
			},
		},
		Loans: []*domain.Loan{
			{ID: uuid.New(), Name: "Interest Free", Type: domain.LoanTypeFixed, OriginalValue: dec("120000"), DurationMonths: 120},
			{ID: uuid.New(), Name: "Refinanced", Type: domain.LoanTypeFixed, OriginalValue: dec("90000"), CurrentBalance: &balance, DurationMonths: 60},
		},
		RevenueStreams: []*domain.RevenueStream{
			{Type: domain.StreamTypeSalary, StartDate: date(2022, 1), Amount: dec("120000"), TaxRate: dec("25")},
			{Type: domain.StreamTypeSalary, StartDate: date(2020, 1), EndDate: &ended, Amount: dec("50000")},
			{Type: domain.StreamTypePension, StartDate: date(2025, 1), Amount: dec("800")},
		},
	}
	mockRepo.On("GetByID", ctx, p.ID).Return(p, nil)

	summary, err := service.GetSummary(ctx, p.ID)

	require.NoError(t, err)
	assert.True(t, summary.TotalAssets.Equal(dec("17000")))
	assert.True(t, summary.TotalLiabilities.Equal(dec("180000")))
	assert.True(t, summary.NetWorth.Equal(dec("-163000")))
	// 120000/12 × 0.75 + 3000/3 × 0.9
	assert.True(t, summary.MonthlyRevenue.Equal(dec("8400")), summary.MonthlyRevenue.String())
	// 120000/120 + 60000/60
	assert.True(t, summary.MonthlyLoanPayments.Equal(dec("2000")), summary.MonthlyLoanPayments.String())
	assert.True(t, summary.MonthlyNetCashFlow.Equal(dec("6400")))
	assert.Equal(t, 2, summary.AssetCount)
	assert.Equal(t, 2, summary.LoanCount)
	assert.Equal(t, 4, summary.RevenueStreamCount)
	mockRepo.AssertExpectations(t)
}

func TestGetSummary_EmptyPortfolio(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPortfolioRepository)
	service := NewSummaryService(mockRepo)
	p := &domain.Portfolio{ID: uuid.New()}
	mockRepo.On("GetByID", ctx, p.ID).Return(p, nil)

	summary, err := service.GetSummary(ctx, p.ID)

	require.NoError(t, err)
	assert.True(t, summary.NetWorth.IsZero())
	assert.True(t, summary.MonthlyNetCashFlow.IsZero())
	assert.Zero(t, summary.AssetCount)
}

func TestGetSummary_PortfolioNotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPortfolioRepository)
	service := NewSummaryService(mockRepo)
	id := uuid.New()
	mockRepo.On("GetByID", ctx, id).Return(nil, domain.ErrNotFound)

	summary, err := service.GetSummary(ctx, id)

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to load portfolio")
}

func TestGetSummary_AnnuityAtStatedRate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPortfolioRepository)
	service := NewSummaryService(mockRepo)
	p := &domain.Portfolio{
		ID: uuid.New(),
		Loans: []*domain.Loan{
			{ID: uuid.New(), Name: "Mortgage", Type: domain.LoanTypeVariable, OriginalValue: dec("100000"), InterestRateAnnualPct: dec("6"), DurationMonths: 360},
		},
	}
	mockRepo.On("GetByID", ctx, p.ID).Return(p, nil)

	summary, err := service.GetSummary(ctx, p.ID)

	require.NoError(t, err)
	assert.True(t, summary.MonthlyLoanPayments.Equal(dec("599.55")), summary.MonthlyLoanPayments.String())
}
