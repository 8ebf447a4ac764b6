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

// projectionCacheRepository implements domain.ProjectionCacheRepository
type projectionCacheRepository struct {
	db *DB
}

// NewProjectionCacheRepository creates a new projection cache repository
func NewProjectionCacheRepository(db *DB) domain.ProjectionCacheRepository {
	return &projectionCacheRepository{db: db}
}

// Get returns the cached projection stored under key
func (r *projectionCacheRepository) Get(ctx context.Context, portfolioID uuid.UUID, key string) (*domain.ProjectionResult, error) {
	query := `
		SELECT result
		FROM projection_cache
		WHERE portfolio_id = $1 AND cache_key = $2
	`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, portfolioID, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read projection cache: %w", err)
	}

	var result domain.ProjectionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached projection: %w", err)
	}

	return &result, nil
}

// Put replaces the entry under key with a delete-then-insert in one database transaction
func (r *projectionCacheRepository) Put(ctx context.Context, portfolioID uuid.UUID, key string, result *domain.ProjectionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode projection: %w", err)
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM projection_cache WHERE portfolio_id = $1 AND cache_key = $2`, portfolioID, key); err != nil {
		return fmt.Errorf("failed to delete cached projection: %w", err)
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO projection_cache (portfolio_id, cache_key, run_id, result, computed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, portfolioID, key, result.RunID, raw, result.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cached projection: %w", err)
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
