package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StreamType represents the variant of a revenue stream
type StreamType string

const (
	StreamTypeSalary   StreamType = "salary"
	StreamTypeRent     StreamType = "rent"
	StreamTypeDividend StreamType = "dividend"
	StreamTypePension  StreamType = "pension"
)

// Period is a payment periodicity
type Period string

const (
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// Months returns the period length in months.
// Unknown periods are treated as yearly.
func (p Period) Months() int {
	switch p {
	case PeriodMonthly:
		return 1
	case PeriodQuarterly:
		return 3
	default:
		return 12
	}
}

// ParsePeriod accepts the named periods and the payout-count aliases
// "12" (monthly), "4" (quarterly) and "1" (yearly)
func ParsePeriod(raw string) Period {
	switch raw {
	case "monthly", "12":
		return PeriodMonthly
	case "quarterly", "4":
		return PeriodQuarterly
	case "yearly", "1":
		return PeriodYearly
	default:
		return Period(raw)
	}
}

// RevenueStream is an income source. Salary and rent produce their own cash
// flow; dividend terms are read by the asset they are attached to; pension
// streams only exist in an attached-asset context.
type RevenueStream struct {
	ID         uuid.UUID
	Name       string
	Type       StreamType
	AssetID    *uuid.UUID // nil for standalone streams
	StartDate  time.Time
	EndDate    *time.Time
	Amount     decimal.Decimal // salary: annual; rent: per period; pension: monthly payout
	Period     Period
	TaxRate    decimal.Decimal // percent
	GrowthRate decimal.Decimal // annual percent

	// Dividend terms
	DividendYield     decimal.Decimal // annual percent
	PayoutFrequency   Period
	WithdrawStartDate *time.Time // dividends are reinvested before this month
}

// Validate ensures the stream adheres to domain rules
func (s *RevenueStream) Validate() error {
	switch s.Type {
	case StreamTypeSalary, StreamTypeRent, StreamTypePension:
		if s.Amount.LessThan(decimal.Zero) {
			return errors.New("revenue stream amount cannot be negative")
		}
	case StreamTypeDividend:
		if s.DividendYield.LessThan(decimal.Zero) {
			return errors.New("dividend yield cannot be negative")
		}
	default:
		return errors.New("invalid revenue stream type")
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return errors.New("revenue stream end date must not be before its start date")
	}
	if err := ValidateRate(s.GrowthRate); err != nil {
		return err
	}
	return ValidateRate(s.TaxRate)
}

// WithdrawStart returns the dividend reinvest→withdraw switch month
func (s *RevenueStream) WithdrawStart() time.Time {
	if s.WithdrawStartDate == nil {
		return DividendWithdrawSentinel
	}
	return MonthStart(*s.WithdrawStartDate)
}

// Clone returns an independent copy
func (s *RevenueStream) Clone() *RevenueStream {
	out := *s
	out.AssetID = cloneUUID(s.AssetID)
	out.EndDate = cloneTime(s.EndDate)
	out.WithdrawStartDate = cloneTime(s.WithdrawStartDate)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
