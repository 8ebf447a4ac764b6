package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

// scenarioRepository implements domain.ScenarioStore.
// Actions are kept in their stored order as a JSON array.
type scenarioRepository struct {
	db *DB
}

// NewScenarioRepository creates a new scenario repository
func NewScenarioRepository(db *DB) domain.ScenarioStore {
	return &scenarioRepository{db: db}
}

// GetByID retrieves a scenario by its ID
func (r *scenarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Scenario, error) {
	query := `
		SELECT id, portfolio_id, name, description, actions
		FROM scenarios
		WHERE id = $1
	`

	var s domain.Scenario
	var actions []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.PortfolioID, &s.Name, &s.Description, &actions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scenario %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scenario by ID: %w", err)
	}

	if err := json.Unmarshal(actions, &s.Actions); err != nil {
		return nil, fmt.Errorf("failed to parse scenario actions: %w", err)
	}

	return &s, nil
}

// Save creates or replaces a scenario
func (r *scenarioRepository) Save(ctx context.Context, s *domain.Scenario) error {
	actions, err := json.Marshal(nonNil(s.Actions))
	if err != nil {
		return fmt.Errorf("failed to encode scenario actions: %w", err)
	}

	query := `
		INSERT INTO scenarios (id, portfolio_id, name, description, actions)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET portfolio_id = EXCLUDED.portfolio_id, name = EXCLUDED.name,
		    description = EXCLUDED.description, actions = EXCLUDED.actions
	`

	if _, err := r.db.ExecContext(ctx, query, s.ID, s.PortfolioID, s.Name, s.Description, actions); err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}

	return nil
}
