package domain

import (
	"context"

	"github.com/google/uuid"
)

// PortfolioRepository defines the interface for loading instrument parameter records
type PortfolioRepository interface {
	// GetByID retrieves a portfolio with all its assets, loans, standalone
	// revenue streams and standalone cash flows
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)
}

// MeasurementRepository defines the interface for historical measurement persistence
type MeasurementRepository interface {
	// Add stores a new measurement
	Add(ctx context.Context, m *Measurement) error

	// ListByPortfolio retrieves every measurement of a portfolio ordered by date
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]Measurement, error)

	// GetLatest retrieves the most recent measurement of one entity
	GetLatest(ctx context.Context, entityType EntityType, entityID uuid.UUID) (*Measurement, error)
}

// ScenarioRepository defines the interface for stored scenarios
type ScenarioRepository interface {
	// GetByID retrieves a scenario with its ordered actions
	GetByID(ctx context.Context, id uuid.UUID) (*Scenario, error)
}

// IndexRepository supplies the static index reference datasets
type IndexRepository interface {
	// Load returns the raw benchmark-rate and price-index observations
	Load(ctx context.Context) (IndexData, error)
}

// ProjectionCacheRepository stores computed projections keyed by portfolio version and window.
// Entries are immutable once written; Put replaces an existing entry atomically.
type ProjectionCacheRepository interface {
	// Get returns the cached result, or ErrNotFound
	Get(ctx context.Context, portfolioID uuid.UUID, key string) (*ProjectionResult, error)

	// Put stores result under key, replacing any previous entry
	Put(ctx context.Context, portfolioID uuid.UUID, key string, result *ProjectionResult) error
}

// PortfolioStore is a PortfolioRepository that also accepts writes
type PortfolioStore interface {
	PortfolioRepository

	// Save replaces the stored portfolio and all its records with p
	Save(ctx context.Context, p *Portfolio) error
}

// ScenarioStore is a ScenarioRepository that also accepts writes
type ScenarioStore interface {
	ScenarioRepository

	// Save creates or replaces a scenario
	Save(ctx context.Context, s *Scenario) error
}
