package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType represents the variant of an asset
type AssetType string

const (
	AssetTypeCash       AssetType = "cash"
	AssetTypeRealEstate AssetType = "real_estate"
	AssetTypeStock      AssetType = "stock"
	AssetTypePension    AssetType = "pension"
)

// IsValid reports whether t is one of the known asset variants
func (t AssetType) IsValid() bool {
	switch t {
	case AssetTypeCash, AssetTypeRealEstate, AssetTypeStock, AssetTypePension:
		return true
	}
	return false
}

// DefaultConversionCoefficient converts an accumulated pension into a monthly payout
var DefaultConversionCoefficient = decimal.NewFromInt(200)

// ValuePoint is a dated observed value
type ValuePoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// CrashEvent scales a stock's value by (1 - Percent) at the given month.
// Percent is a fraction (0.2 = 20%).
type CrashEvent struct {
	Date    time.Time
	Percent decimal.Decimal
}

// Asset holds the parameters of one asset instrument
type Asset struct {
	ID                        uuid.UUID
	Name                      string
	Type                      AssetType
	StartDate                 time.Time
	OriginalValue             decimal.Decimal
	CurrentValue              *decimal.Decimal // overrides OriginalValue as the opening value
	AppreciationRateAnnualPct decimal.Decimal
	YearlyFeePct              decimal.Decimal
	MonthlyPayment            decimal.Decimal // real estate level payment
	SellDate                  *time.Time
	SellTaxPct                decimal.Decimal
	Deposits                  []*CashFlowEntry
	Withdrawals               []*CashFlowEntry
	RevenueStream             *RevenueStream
	History                   []ValuePoint
	CrashEvents               []CrashEvent

	// Pension terms
	EndDate               *time.Time
	ConversionDate        *time.Time
	ConversionCoefficient decimal.Decimal
}

// Validate ensures the asset adheres to domain rules
func (a *Asset) Validate() error {
	if a.Name == "" {
		return errors.New("asset name cannot be empty")
	}
	if !a.Type.IsValid() {
		return errors.New("invalid asset type")
	}
	if a.StartDate.IsZero() {
		return errors.New("asset must have a start date")
	}
	if a.OriginalValue.LessThan(decimal.Zero) {
		return errors.New("asset original value cannot be negative")
	}
	if err := ValidateRate(a.AppreciationRateAnnualPct); err != nil {
		return err
	}
	if err := ValidateRate(a.YearlyFeePct); err != nil {
		return err
	}
	if a.SellTaxPct.LessThan(decimal.Zero) || a.SellTaxPct.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("sell tax must be between 0 and 100 percent")
	}
	if a.ConversionCoefficient.IsNegative() {
		return errors.New("pension conversion coefficient must be positive")
	}
	for _, d := range a.Deposits {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	for _, w := range a.Withdrawals {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if a.RevenueStream != nil {
		return a.RevenueStream.Validate()
	}
	return nil
}

// OpeningValue is the value the projection starts from
func (a *Asset) OpeningValue() decimal.Decimal {
	if a.CurrentValue != nil {
		return *a.CurrentValue
	}
	return a.OriginalValue
}

// ExtractionDate is the last month the asset is held (sell date or sentinel)
func (a *Asset) ExtractionDate() time.Time {
	if a.SellDate == nil {
		return ExtractionSentinel
	}
	return MonthStart(*a.SellDate)
}

// PensionEndDate is the month after which a pension stops projecting
func (a *Asset) PensionEndDate() time.Time {
	if a.EndDate == nil {
		return DefaultPensionEndDate
	}
	return MonthStart(*a.EndDate)
}

// Coefficient returns the pension conversion coefficient, defaulting to 200
func (a *Asset) Coefficient() decimal.Decimal {
	if a.ConversionCoefficient.IsPositive() {
		return a.ConversionCoefficient
	}
	return DefaultConversionCoefficient
}

// LatestHistory returns the most recent history entry, if any
func (a *Asset) LatestHistory() (ValuePoint, bool) {
	if len(a.History) == 0 {
		return ValuePoint{}, false
	}
	points := make([]ValuePoint, len(a.History))
	copy(points, a.History)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points[len(points)-1], true
}

// Clone returns a deep copy sharing no mutable state with a
func (a *Asset) Clone() *Asset {
	out := *a
	if a.CurrentValue != nil {
		v := *a.CurrentValue
		out.CurrentValue = &v
	}
	out.SellDate = cloneTime(a.SellDate)
	out.EndDate = cloneTime(a.EndDate)
	out.ConversionDate = cloneTime(a.ConversionDate)
	out.Deposits = cloneEntries(a.Deposits)
	out.Withdrawals = cloneEntries(a.Withdrawals)
	if a.RevenueStream != nil {
		out.RevenueStream = a.RevenueStream.Clone()
	}
	out.History = append([]ValuePoint(nil), a.History...)
	out.CrashEvents = append([]CrashEvent(nil), a.CrashEvents...)
	return &out
}

func cloneEntries(entries []*CashFlowEntry) []*CashFlowEntry {
	if entries == nil {
		return nil
	}
	out := make([]*CashFlowEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
