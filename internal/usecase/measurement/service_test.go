package measurement

import (
	"context"
	"errors"
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

// MockMeasurementRepository is a mock implementation of MeasurementRepository for testing
type MockMeasurementRepository struct {
	mock.Mock
}

func (m *MockMeasurementRepository) Add(ctx context.Context, measurement *domain.Measurement) error {
	args := m.Called(ctx, measurement)
	return args.Error(0)
}

func (m *MockMeasurementRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]domain.Measurement, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Measurement), args.Error(1)
}

func (m *MockMeasurementRepository) GetLatest(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Measurement, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Measurement), args.Error(1)
}

func testPortfolio() *domain.Portfolio {
	return &domain.Portfolio{
		ID:     uuid.New(),
		Assets: []*domain.Asset{{ID: uuid.New(), Name: "Brokerage", Type: domain.AssetTypeStock}},
		Loans:  []*domain.Loan{{ID: uuid.New(), Name: "Mortgage", Type: domain.LoanTypeFixed}},
	}
}

func TestRecord_Success(t *testing.T) {
	ctx := context.Background()
	mockPortfolioRepo := new(MockPortfolioRepository)
	mockMeasurementRepo := new(MockMeasurementRepository)
	service := NewMeasurementService(mockPortfolioRepo, mockMeasurementRepo)
	service.now = func() time.Time { return time.Date(2024, 3, 9, 17, 30, 0, 0, time.UTC) }

	p := testPortfolio()
	loanID := p.Loans[0].ID
	mockPortfolioRepo.On("GetByID", ctx, p.ID).Return(p, nil)
	mockMeasurementRepo.On("Add", ctx, mock.MatchedBy(func(m *domain.Measurement) bool {
		return m.EntityID == loanID && m.ActualValue.Equal(decimal.NewFromInt(950000))
	})).Return(nil)

	m, err := service.Record(ctx, RecordInput{
		PortfolioID: p.ID,
		EntityType:  domain.EntityTypeLoan,
		EntityID:    loanID,
		ActualValue: decimal.NewFromInt(950000),
		Notes:       "bank statement",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "bank statement", m.Notes)
	mockPortfolioRepo.AssertExpectations(t)
	mockMeasurementRepo.AssertExpectations(t)
}

func TestRecord_Errors(t *testing.T) {
	p := testPortfolio()
	assetID := p.Assets[0].ID

	tests := []struct {
		name    string
		input   RecordInput
		setup   func(pr *MockPortfolioRepository, mr *MockMeasurementRepository)
		wantErr error
		errMsg  string
	}{
		{
			name:   "Zero value",
			input:  RecordInput{PortfolioID: p.ID, EntityType: domain.EntityTypeAsset, EntityID: assetID},
			setup:  func(pr *MockPortfolioRepository, mr *MockMeasurementRepository) {},
			errMsg: "measured value must be positive",
		},
		{
			name:   "Negative value",
			input:  RecordInput{PortfolioID: p.ID, EntityType: domain.EntityTypeAsset, EntityID: assetID, ActualValue: decimal.NewFromInt(-5)},
			setup:  func(pr *MockPortfolioRepository, mr *MockMeasurementRepository) {},
			errMsg: "measured value must be positive",
		},
		{
			name:  "Portfolio not found",
			input: RecordInput{PortfolioID: p.ID, EntityType: domain.EntityTypeAsset, EntityID: assetID, ActualValue: decimal.NewFromInt(5)},
			setup: func(pr *MockPortfolioRepository, mr *MockMeasurementRepository) {
				pr.On("GetByID", mock.Anything, p.ID).Return(nil, domain.ErrNotFound)
			},
			wantErr: domain.ErrNotFound,
			errMsg:  "failed to load portfolio",
		},
		{
			name:  "Unknown asset",
			input: RecordInput{PortfolioID: p.ID, EntityType: domain.EntityTypeAsset, EntityID: uuid.New(), ActualValue: decimal.NewFromInt(5)},
			setup: func(pr *MockPortfolioRepository, mr *MockMeasurementRepository) {
				pr.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:  "Asset id given as loan",
			input: RecordInput{PortfolioID: p.ID, EntityType: domain.EntityTypeLoan, EntityID: assetID, ActualValue: decimal.NewFromInt(5)},
			setup: func(pr *MockPortfolioRepository, mr *MockMeasurementRepository) {
				pr.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:  "Repository failure",
			input: RecordInput{PortfolioID: p.ID, EntityType: domain.EntityTypeAsset, EntityID: assetID, ActualValue: decimal.NewFromInt(5)},
			setup: func(pr *MockPortfolioRepository, mr *MockMeasurementRepository) {
				pr.On("GetByID", mock.Anything, p.ID).Return(p, nil)
				mr.On("Add", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			},
			errMsg: "failed to save measurement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPortfolioRepo := new(MockPortfolioRepository)
			mockMeasurementRepo := new(MockMeasurementRepository)
			tt.setup(mockPortfolioRepo, mockMeasurementRepo)
			service := NewMeasurementService(mockPortfolioRepo, mockMeasurementRepo)

			m, err := service.Record(context.Background(), tt.input)

			assert.Nil(t, m)
			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
			mockMeasurementRepo.AssertExpectations(t)
		})
	}
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	mockMeasurementRepo := new(MockMeasurementRepository)
	service := NewMeasurementService(new(MockPortfolioRepository), mockMeasurementRepo)

	id := uuid.New()
	latest := &domain.Measurement{ID: uuid.New(), EntityType: domain.EntityTypeAsset, EntityID: id, ActualValue: decimal.NewFromInt(1200)}
	mockMeasurementRepo.On("GetLatest", ctx, domain.EntityTypeAsset, id).Return(latest, nil)

	m, err := service.Latest(ctx, domain.EntityTypeAsset, id)

	assert.NoError(t, err)
	assert.Equal(t, latest, m)

	other := uuid.New()
	mockMeasurementRepo.On("GetLatest", ctx, domain.EntityTypeLoan, other).Return(nil, domain.ErrNotFound)
	_, err = service.Latest(ctx, domain.EntityTypeLoan, other)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
