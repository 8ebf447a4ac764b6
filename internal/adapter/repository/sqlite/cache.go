// Package sqlite keeps projection results in a local SQLite file so repeated
// CLI runs over an unchanged portfolio skip the engine.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/pkg/id"
)

// Schema is applied when the cache file is opened
const Schema = `
CREATE TABLE IF NOT EXISTS projection_cache (
	id           TEXT PRIMARY KEY,
	portfolio_id TEXT NOT NULL,
	cache_key    TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	result       BLOB NOT NULL,
	computed_at  TIMESTAMP NOT NULL,
	UNIQUE (portfolio_id, cache_key)
);
`

// Cache implements domain.ProjectionCacheRepository on a SQLite file
type Cache struct {
	db *sql.DB
}

// NewCache opens (or creates) the cache file at path
func NewCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the cached result, or domain.ErrNotFound
func (c *Cache) Get(ctx context.Context, portfolioID uuid.UUID, key string) (*domain.ProjectionResult, error) {
	var raw []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT result FROM projection_cache WHERE portfolio_id = ? AND cache_key = ?`,
		portfolioID.String(), key,
	).Scan(&raw)
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
	// entries written without a timestamp fall back to the one in the run id
	if result.ComputedAt.IsZero() {
		if at, err := id.Time(result.RunID); err == nil {
			result.ComputedAt = at
		}
	}
	return &result, nil
}

// Put replaces the entry under key atomically
func (c *Cache) Put(ctx context.Context, portfolioID uuid.UUID, key string, result *domain.ProjectionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode projection: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM projection_cache WHERE portfolio_id = ? AND cache_key = ?`,
		portfolioID.String(), key,
	); err != nil {
		return fmt.Errorf("failed to delete cached projection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projection_cache (id, portfolio_id, cache_key, run_id, result, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id.New(), portfolioID.String(), key, result.RunID, raw, result.ComputedAt,
	); err != nil {
		return fmt.Errorf("failed to insert cached projection: %w", err)
	}

	return tx.Commit()
}

// Close closes the cache file
func (c *Cache) Close() error {
	return c.db.Close()
}
