package measurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

// RecordInput is a new observation of an asset value or loan balance
type RecordInput struct {
	PortfolioID uuid.UUID
	EntityType  domain.EntityType
	EntityID    uuid.UUID
	Date        time.Time // zero means today
	ActualValue decimal.Decimal
	Notes       string
}

// MeasurementService handles measurement-related operations
type MeasurementService struct {
	PortfolioRepo   domain.PortfolioRepository
	MeasurementRepo domain.MeasurementRepository

	now func() time.Time
}

// NewMeasurementService creates a new MeasurementService instance
func NewMeasurementService(portfolioRepo domain.PortfolioRepository, measurementRepo domain.MeasurementRepository) *MeasurementService {
	return &MeasurementService{
		PortfolioRepo:   portfolioRepo,
		MeasurementRepo: measurementRepo,
		now:             time.Now,
	}
}

// Record stores a new measurement for an asset or loan of the portfolio.
// Logic: the measurement only corrects future projections, it never changes
// the instrument's parameters.
func (s *MeasurementService) Record(ctx context.Context, in RecordInput) (*domain.Measurement, error) {
	// Validate value is positive
	if in.ActualValue.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("measured value must be positive")
	}

	// Verify the entity belongs to the portfolio
	p, err := s.PortfolioRepo.GetByID(ctx, in.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if !holds(p, in.EntityType, in.EntityID) {
		return nil, fmt.Errorf("%s %s is not part of portfolio %s: %w", in.EntityType, in.EntityID, in.PortfolioID, domain.ErrNotFound)
	}

	date := in.Date
	if date.IsZero() {
		date = s.now().UTC()
	}
	m := &domain.Measurement{
		ID:          uuid.New(),
		EntityType:  in.EntityType,
		EntityID:    in.EntityID,
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		ActualValue: in.ActualValue,
		Notes:       in.Notes,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if err := s.MeasurementRepo.Add(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save measurement: %w", err)
	}
	return m, nil
}

// Latest returns the most recent measurement of an entity, or ErrNotFound
func (s *MeasurementService) Latest(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Measurement, error) {
	return s.MeasurementRepo.GetLatest(ctx, entityType, entityID)
}

func holds(p *domain.Portfolio, entityType domain.EntityType, id uuid.UUID) bool {
	switch entityType {
	case domain.EntityTypeAsset:
		return p.FindAsset(id) != nil
	case domain.EntityTypeLoan:
		return p.FindLoan(id) != nil
	}
	return false
}
