package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/simaogato/wealthflow-planner/internal/domain"
)

// Seed is one portfolio together with the records that belong to it
type Seed struct {
	Portfolio    *domain.Portfolio
	Scenarios    []*domain.Scenario
	Measurements []domain.Measurement
}

// PortfolioSeeder copies portfolio documents into persistent storage
type PortfolioSeeder struct {
	PortfolioRepo   domain.PortfolioStore
	ScenarioRepo    domain.ScenarioStore
	MeasurementRepo domain.MeasurementRepository
}

// NewPortfolioSeeder creates a new PortfolioSeeder instance
func NewPortfolioSeeder(
	portfolioRepo domain.PortfolioStore,
	scenarioRepo domain.ScenarioStore,
	measurementRepo domain.MeasurementRepository,
) *PortfolioSeeder {
	return &PortfolioSeeder{
		PortfolioRepo:   portfolioRepo,
		ScenarioRepo:    scenarioRepo,
		MeasurementRepo: measurementRepo,
	}
}

// Seed stores the seed unless the same version is already stored.
// It reports whether anything was written.
// Logic:
//   - A missing portfolio, or a stored one with a different version, is replaced
//   - Scenarios and measurements are written only alongside their portfolio
func (s *PortfolioSeeder) Seed(ctx context.Context, seed Seed) (bool, error) {
	p := seed.Portfolio

	// 1. Validate before touching storage
	if err := p.Validate(); err != nil {
		return false, fmt.Errorf("invalid portfolio %q: %w", p.Name, err)
	}

	// 2. Skip when the stored copy is current
	existing, err := s.PortfolioRepo.GetByID(ctx, p.ID)
	switch {
	case err == nil && existing.Version == p.Version:
		return false, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return false, fmt.Errorf("failed to load portfolio: %w", err)
	}

	// 3. Replace the portfolio, then its dependent records
	if err := s.PortfolioRepo.Save(ctx, p); err != nil {
		return false, fmt.Errorf("failed to save portfolio: %w", err)
	}
	for _, sc := range seed.Scenarios {
		if sc.PortfolioID != p.ID {
			return true, fmt.Errorf("scenario %q belongs to another portfolio", sc.Name)
		}
		if err := s.ScenarioRepo.Save(ctx, sc); err != nil {
			return true, fmt.Errorf("failed to save scenario %q: %w", sc.Name, err)
		}
	}
	for i := range seed.Measurements {
		if err := seed.Measurements[i].Validate(); err != nil {
			return true, err
		}
		if err := s.MeasurementRepo.Add(ctx, &seed.Measurements[i]); err != nil {
			return true, fmt.Errorf("failed to save measurement: %w", err)
		}
	}

	return true, nil
}
