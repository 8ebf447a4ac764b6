package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActionType tags a scenario action variant
type ActionType string

const (
	ActionNewLoan           ActionType = "new_loan"
	ActionNewAsset          ActionType = "new_asset"
	ActionRepayLoan         ActionType = "repay_loan"
	ActionTransformAsset    ActionType = "transform_asset"
	ActionParamChange       ActionType = "param_change"
	ActionWithdrawFromAsset ActionType = "withdraw_from_asset"
	ActionDepositToAsset    ActionType = "deposit_to_asset"
	ActionMarketCrash       ActionType = "market_crash"
	ActionAddRevenueStream  ActionType = "add_revenue_stream"
)

// UpdateField names an instrument parameter a scenario may patch
type UpdateField string

const (
	FieldName                  UpdateField = "name"
	FieldOriginalValue         UpdateField = "original_value"
	FieldCurrentValue          UpdateField = "current_value"
	FieldAppreciationRate      UpdateField = "appreciation_rate_annual_pct"
	FieldYearlyFee             UpdateField = "yearly_fee_pct"
	FieldMonthlyPayment        UpdateField = "monthly_payment"
	FieldStartDate             UpdateField = "start_date"
	FieldSellDate              UpdateField = "sell_date"
	FieldSellTax               UpdateField = "sell_tax"
	FieldEndDate               UpdateField = "end_date"
	FieldConversionDate        UpdateField = "conversion_date"
	FieldConversionCoefficient UpdateField = "conversion_coefficient"
	FieldInterestRate          UpdateField = "interest_rate_annual_pct"
	FieldDurationMonths        UpdateField = "duration_months"
	FieldMarginPct             UpdateField = "margin_pct"
	FieldInflationRate         UpdateField = "inflation_rate"
	FieldExpectedCPIIncrease   UpdateField = "expected_cpi_increase"
	FieldRepaymentDate         UpdateField = "repayment_date"
	FieldCurrentBalance        UpdateField = "current_balance"
)

// Patch sets a single typed field to a new value (given in its text form)
type Patch struct {
	Field UpdateField
	Value string
}

// ApplyToAsset sets the patched field on a. Fields that do not belong to an
// asset return ErrUnknownField; a malformed value returns a parse error and
// leaves a untouched.
func (p Patch) ApplyToAsset(a *Asset) error {
	switch p.Field {
	case FieldName:
		a.Name = p.Value
	case FieldOriginalValue:
		return p.setDecimal(&a.OriginalValue)
	case FieldCurrentValue:
		v, err := p.decimal()
		if err != nil {
			return err
		}
		a.CurrentValue = &v
	case FieldAppreciationRate:
		return p.setRate(&a.AppreciationRateAnnualPct)
	case FieldYearlyFee:
		return p.setRate(&a.YearlyFeePct)
	case FieldMonthlyPayment:
		return p.setDecimal(&a.MonthlyPayment)
	case FieldSellTax:
		return p.setDecimal(&a.SellTaxPct)
	case FieldConversionCoefficient:
		return p.setDecimal(&a.ConversionCoefficient)
	case FieldStartDate:
		t, err := ParseDate(p.Value)
		if err != nil {
			return err
		}
		a.StartDate = t
	case FieldSellDate:
		return p.setDatePtr(&a.SellDate)
	case FieldEndDate:
		return p.setDatePtr(&a.EndDate)
	case FieldConversionDate:
		return p.setDatePtr(&a.ConversionDate)
	default:
		return fmt.Errorf("asset field %q: %w", p.Field, ErrUnknownField)
	}
	return nil
}

// ApplyToLoan sets the patched field on l, rejecting non-loan fields with ErrUnknownField
func (p Patch) ApplyToLoan(l *Loan) error {
	switch p.Field {
	case FieldName:
		l.Name = p.Value
	case FieldOriginalValue:
		return p.setDecimal(&l.OriginalValue)
	case FieldCurrentBalance:
		v, err := p.decimal()
		if err != nil {
			return err
		}
		l.CurrentBalance = &v
	case FieldInterestRate:
		return p.setRate(&l.InterestRateAnnualPct)
	case FieldMarginPct:
		return p.setRate(&l.MarginPct)
	case FieldInflationRate:
		return p.setRate(&l.InflationRateAnnualPct)
	case FieldExpectedCPIIncrease:
		v, err := p.decimal()
		if err != nil {
			return err
		}
		l.ExpectedCPIIncreasePct = &v
	case FieldDurationMonths:
		n, err := strconv.Atoi(p.Value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid duration %q", p.Value)
		}
		l.DurationMonths = n
	case FieldStartDate:
		t, err := ParseDate(p.Value)
		if err != nil {
			return err
		}
		l.StartDate = t
	case FieldRepaymentDate:
		return p.setDatePtr(&l.RepaymentDate)
	default:
		return fmt.Errorf("loan field %q: %w", p.Field, ErrUnknownField)
	}
	return nil
}

func (p Patch) decimal() (decimal.Decimal, error) {
	v, err := decimal.NewFromString(p.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value %q for %s: %w", p.Value, p.Field, err)
	}
	return v, nil
}

func (p Patch) setDecimal(dst *decimal.Decimal) error {
	v, err := p.decimal()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (p Patch) setRate(dst *decimal.Decimal) error {
	v, err := NormalizeRate(p.Value)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (p Patch) setDatePtr(dst **time.Time) error {
	t, err := ParseDate(p.Value)
	if err != nil {
		return err
	}
	*dst = &t
	return nil
}

// NewAssetParams describes an asset created by a scenario
type NewAssetParams struct {
	ID                        *uuid.UUID
	Name                      string
	AssetType                 AssetType // default stock
	StartDate                 *time.Time
	OriginalValue             decimal.Decimal
	AppreciationRateAnnualPct decimal.Decimal
	YearlyFeePct              decimal.Decimal
	EndDate                   *time.Time
	ConversionDate            *time.Time
	ConversionCoefficient     decimal.Decimal
	SellDate                  *time.Time
	SellTaxPct                decimal.Decimal
}

// NewLoanParams describes a loan created by a scenario
type NewLoanParams struct {
	ID                     *uuid.UUID
	Name                   string
	LoanType               LoanType // fixed or variable, default fixed
	StartDate              *time.Time
	OriginalValue          decimal.Decimal
	InterestRateAnnualPct  decimal.Decimal
	DurationMonths         int // default 240
	MarginPct              decimal.Decimal
	InflationRateAnnualPct decimal.Decimal
}

// NewStreamParams describes a revenue stream attached by a scenario
type NewStreamParams struct {
	StreamType StreamType // rent, salary or pension
	Name       string
	StartDate  *time.Time
	EndDate    *time.Time
	Amount     decimal.Decimal
	Period     Period // default monthly
	TaxRate    decimal.Decimal
	GrowthRate decimal.Decimal
}

// CrashParams describes a one-time market shock
type CrashParams struct {
	CrashPct           decimal.Decimal
	CrashDate          *time.Time
	AffectedAssetTypes []AssetType // nil means every asset type
}

// Affects reports whether an asset of type t is hit by the crash
func (c *CrashParams) Affects(t AssetType) bool {
	if c.AffectedAssetTypes == nil {
		return true
	}
	for _, at := range c.AffectedAssetTypes {
		if at == t {
			return true
		}
	}
	return false
}

// Action is one declarative scenario mutation. Type selects which payload
// fields are read; the others are ignored.
type Action struct {
	Type       ActionType
	TargetType EntityType
	TargetID   *uuid.UUID
	Patch      *Patch  // param_change
	Changes    []Patch // transform_asset
	ActionDate *time.Time
	Amount     *decimal.Decimal
	NewAsset   *NewAssetParams
	NewLoan    *NewLoanParams
	NewStream  *NewStreamParams
	Crash      *CrashParams
}

// IsDeferred reports whether the action applies to computed series rather than inputs
func (a Action) IsDeferred() bool {
	switch a.Type {
	case ActionMarketCrash:
		return true
	case ActionParamChange:
		return a.ActionDate != nil
	}
	return false
}

// Scenario is a named, ordered list of actions stored against a portfolio
type Scenario struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Name        string
	Description string
	Actions     []Action
}
