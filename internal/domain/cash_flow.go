package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashFlowKind distinguishes deposits from withdrawals
type CashFlowKind string

const (
	CashFlowDeposit    CashFlowKind = "deposit"
	CashFlowWithdrawal CashFlowKind = "withdrawal"
)

// CashFlowEntry is a recurring monthly deposit into or withdrawal from an
// asset, active on every month start in the inclusive range [From, To].
// Entries without a TargetAssetID are standalone household cash flows.
type CashFlowEntry struct {
	ID             uuid.UUID
	Name           string
	Kind           CashFlowKind
	Amount         decimal.Decimal
	From           time.Time
	To             time.Time
	FromOwnCapital bool
	TargetAssetID  *uuid.UUID
}

// Covers reports whether the entry is active at the given month
func (c *CashFlowEntry) Covers(date time.Time) bool {
	return !date.Before(c.From) && !date.After(c.To)
}

// Validate ensures the entry adheres to domain rules
func (c *CashFlowEntry) Validate() error {
	if c.Kind != CashFlowDeposit && c.Kind != CashFlowWithdrawal {
		return errors.New("cash flow kind must be deposit or withdrawal")
	}
	if c.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("cash flow amount must be positive")
	}
	if c.To.Before(c.From) {
		return errors.New("cash flow end must not be before its start")
	}
	return nil
}

// Normalize aligns the range bounds to month starts
func (c *CashFlowEntry) Normalize() {
	c.From = MonthStart(c.From)
	c.To = MonthStart(c.To)
}

// Clone returns an independent copy
func (c *CashFlowEntry) Clone() *CashFlowEntry {
	out := *c
	if c.TargetAssetID != nil {
		id := *c.TargetAssetID
		out.TargetAssetID = &id
	}
	return &out
}
