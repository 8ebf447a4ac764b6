package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanType represents the variant of a loan
type LoanType string

const (
	LoanTypeFixed       LoanType = "fixed"
	LoanTypeVariable    LoanType = "variable"
	LoanTypePrimePegged LoanType = "prime_pegged"
	LoanTypeCPIPegged   LoanType = "cpi_pegged"
)

// IsValid reports whether t is one of the known loan variants
func (t LoanType) IsValid() bool {
	switch t {
	case LoanTypeFixed, LoanTypeVariable, LoanTypePrimePegged, LoanTypeCPIPegged:
		return true
	}
	return false
}

// DefaultLoanDurationMonths is used for scenario loans created without a duration
const DefaultLoanDurationMonths = 240

// DefaultExpectedCPIIncreasePct extrapolates the price index beyond its last observation
var DefaultExpectedCPIIncreasePct = decimal.NewFromInt(3)

// Loan holds the parameters of one loan instrument
type Loan struct {
	ID                     uuid.UUID
	Name                   string
	Type                   LoanType
	StartDate              time.Time
	OriginalValue          decimal.Decimal
	CurrentBalance         *decimal.Decimal // overrides OriginalValue as the amortized principal
	InterestRateAnnualPct  decimal.Decimal  // variable: base rate; pegged: base rate before index changes
	DurationMonths         int
	MarginPct              decimal.Decimal // variable only
	InflationRateAnnualPct decimal.Decimal // variable only
	ExpectedCPIIncreasePct *decimal.Decimal
	RepaymentDate          *time.Time
	CollateralAssetID      *uuid.UUID
}

// Validate ensures the loan adheres to domain rules
func (l *Loan) Validate() error {
	if l.Name == "" {
		return errors.New("loan name cannot be empty")
	}
	if !l.Type.IsValid() {
		return errors.New("invalid loan type")
	}
	if l.StartDate.IsZero() {
		return errors.New("loan must have a start date")
	}
	if l.OriginalValue.LessThanOrEqual(decimal.Zero) {
		return errors.New("loan original value must be positive")
	}
	if l.DurationMonths <= 0 {
		return errors.New("loan duration must be positive")
	}
	if err := ValidateRate(l.InterestRateAnnualPct); err != nil {
		return err
	}
	if err := ValidateRate(l.MarginPct); err != nil {
		return err
	}
	return ValidateRate(l.InflationRateAnnualPct)
}

// Principal is the amount amortized by the schedule
func (l *Loan) Principal() decimal.Decimal {
	if l.CurrentBalance != nil {
		return *l.CurrentBalance
	}
	return l.OriginalValue
}

// ExpectedCPIIncrease returns the expected yearly index growth, defaulting to 3%
func (l *Loan) ExpectedCPIIncrease() decimal.Decimal {
	if l.ExpectedCPIIncreasePct == nil {
		return DefaultExpectedCPIIncreasePct
	}
	return *l.ExpectedCPIIncreasePct
}

// EndDate is the month start one full duration after the loan start
func (l *Loan) EndDate() time.Time {
	return AddMonths(MonthStart(l.StartDate), l.DurationMonths)
}

// Clone returns a deep copy sharing no mutable state with l
func (l *Loan) Clone() *Loan {
	out := *l
	if l.CurrentBalance != nil {
		v := *l.CurrentBalance
		out.CurrentBalance = &v
	}
	if l.ExpectedCPIIncreasePct != nil {
		v := *l.ExpectedCPIIncreasePct
		out.ExpectedCPIIncreasePct = &v
	}
	out.RepaymentDate = cloneTime(l.RepaymentDate)
	out.CollateralAssetID = cloneUUID(l.CollateralAssetID)
	return &out
}
