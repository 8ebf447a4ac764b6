package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndexType identifies a reference index
type IndexType string

const (
	IndexTypePrime IndexType = "prime"
	IndexTypeCPI   IndexType = "cpi"
)

// PrimeObservation is one raw benchmark-rate observation.
// Dates are kept as supplied (day-first) so parse failures surface at tracking time.
type PrimeObservation struct {
	EffectiveStart string
	EffectiveEnd   string
	Rate           decimal.Decimal // annual percent
}

// CPIObservation is one raw monthly price-index observation (YearMonth as MM/YY)
type CPIObservation struct {
	YearMonth     string
	Level         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
}

// RateChange is one breakpoint of a benchmark-rate change calendar
type RateChange struct {
	Start            time.Time
	Rate             decimal.Decimal // annual percent in force from Start
	Change           decimal.Decimal // delta against the previous breakpoint (percent points)
	CumulativeChange decimal.Decimal // delta against the rate in force at loan origination
	MonthsToLoanEnd  int
}

// CPIPoint is one month of price-index level
type CPIPoint struct {
	Date            time.Time
	Level           decimal.Decimal
	MonthsToLoanEnd int
	Extrapolated    bool
}

// IndexData bundles both raw datasets
type IndexData struct {
	Prime []PrimeObservation
	CPI   []CPIObservation
}

// DefaultIndexData is used when no reference files are available
func DefaultIndexData() IndexData {
	return IndexData{
		Prime: []PrimeObservation{
			{EffectiveStart: "01/06/2022", EffectiveEnd: "01/01/2030", Rate: decimal.NewFromFloat(2.5)},
		},
		CPI: []CPIObservation{
			{YearMonth: "01/22", Level: decimal.NewFromInt(103)},
		},
	}
}
