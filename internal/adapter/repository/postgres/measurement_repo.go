package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

// measurementRepository implements domain.MeasurementRepository
type measurementRepository struct {
	db *DB
}

// NewMeasurementRepository creates a new measurement repository
func NewMeasurementRepository(db *DB) domain.MeasurementRepository {
	return &measurementRepository{db: db}
}

// Add stores a measurement, replacing one with the same id
func (r *measurementRepository) Add(ctx context.Context, m *domain.Measurement) error {
	query := `
		INSERT INTO measurements (id, entity_type, entity_id, date, actual_value, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET actual_value = EXCLUDED.actual_value, notes = EXCLUDED.notes
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		string(m.EntityType),
		m.EntityID,
		m.Date,
		m.ActualValue.String(),
		m.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert measurement: %w", err)
	}

	return nil
}

// ListByPortfolio retrieves the measurements of every asset and loan of a portfolio ordered by date
func (r *measurementRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]domain.Measurement, error) {
	query := `
		SELECT m.id, m.entity_type, m.entity_id, m.date, m.actual_value, m.notes
		FROM measurements m
		WHERE (m.entity_type = 'asset' AND m.entity_id IN (SELECT id FROM assets WHERE portfolio_id = $1))
		   OR (m.entity_type = 'loan' AND m.entity_id IN (SELECT id FROM loans WHERE portfolio_id = $1))
		ORDER BY m.date ASC, m.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	var measurements []domain.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		measurements = append(measurements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating measurements: %w", err)
	}

	return measurements, nil
}

// GetLatest retrieves the most recent measurement of an entity
func (r *measurementRepository) GetLatest(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Measurement, error) {
	query := `
		SELECT id, entity_type, entity_id, date, actual_value, notes
		FROM measurements
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY date DESC
		LIMIT 1
	`

	m, err := scanMeasurement(r.db.QueryRowContext(ctx, query, string(entityType), entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no measurement found for %s %s: %w", entityType, entityID, domain.ErrNotFound)
		}
		return nil, err
	}

	return m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row scanner) (*domain.Measurement, error) {
	var m domain.Measurement
	var entityType, valueStr string

	if err := row.Scan(&m.ID, &entityType, &m.EntityID, &m.Date, &valueStr, &m.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan measurement: %w", err)
	}
	m.EntityType = domain.EntityType(entityType)

	// Parse actual_value (DECIMAL)
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse actual_value: %w", err)
	}
	m.ActualValue = value

	return &m, nil
}
