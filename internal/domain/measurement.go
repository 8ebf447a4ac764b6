package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntityType identifies whether a record refers to an asset or a loan
type EntityType string

const (
	EntityTypeAsset EntityType = "asset"
	EntityTypeLoan  EntityType = "loan"
)

// Measurement is a dated real-world observation of an asset value or loan
// balance. It corrects a projection but never mutates instrument parameters.
type Measurement struct {
	ID          uuid.UUID
	EntityType  EntityType
	EntityID    uuid.UUID
	Date        time.Time
	ActualValue decimal.Decimal
	Notes       string
}

// Validate ensures the measurement adheres to domain rules
func (m *Measurement) Validate() error {
	if m.EntityType != EntityTypeAsset && m.EntityType != EntityTypeLoan {
		return errors.New("measurement must reference an asset or a loan")
	}
	if m.EntityID == uuid.Nil {
		return errors.New("measurement must reference an entity id")
	}
	if m.Date.IsZero() {
		return errors.New("measurement must have a date")
	}
	if m.ActualValue.LessThan(decimal.Zero) {
		return errors.New("measurement value cannot be negative")
	}
	return nil
}
