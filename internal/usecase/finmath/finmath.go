// Package finmath holds the decimal arithmetic shared by the projection engines:
// rate conversion, annuity payments, and the rounding applied between recurrence steps.
package finmath

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places kept between recurrence steps
const Precision = 10

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

// ErrNonPositivePeriods is returned when an annuity is requested over zero or fewer periods
var ErrNonPositivePeriods = errors.New("number of periods must be positive")

// Round rounds an intermediate result to Precision places
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

// Money rounds a reported amount to cents
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Fraction converts a percentage to a fraction (5 -> 0.05)
func Fraction(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred)
}

// MonthlyRate converts an annual percentage to a simple monthly fraction (pct/100/12)
func MonthlyRate(annualPct decimal.Decimal) decimal.Decimal {
	return Round(annualPct.Div(hundred).Div(twelve))
}

// Pow raises base to a non-negative integer power
func Pow(base decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return one
	}
	out, err := base.PowInt32(int32(n))
	if err != nil {
		// PowInt32 only fails for 0^negative, excluded above
		return decimal.Zero
	}
	return out
}

// PowFrac raises base to a fractional power. Exact decimal roots are not
// available, so the computation goes through float64.
func PowFrac(base decimal.Decimal, exp float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(math.Pow(base.InexactFloat64(), exp)))
}

// Growth returns the compounded factor (1 + annualPct/100)^(months/12)
func Growth(annualPct decimal.Decimal, months int) decimal.Decimal {
	return PowFrac(one.Add(Fraction(annualPct)), float64(months)/12)
}

// Annuity returns the level payment that amortizes principal over n periods
// at periodic rate r: P·r·(1+r)^n / ((1+r)^n − 1), or P/n when r is zero.
func Annuity(principal, r decimal.Decimal, n int) (decimal.Decimal, error) {
	if n <= 0 {
		return decimal.Zero, ErrNonPositivePeriods
	}
	if r.IsZero() {
		return Round(principal.Div(decimal.NewFromInt(int64(n)))), nil
	}
	factor := Pow(one.Add(r), n)
	denom := factor.Sub(one)
	if denom.IsZero() {
		return Round(principal.Div(decimal.NewFromInt(int64(n)))), nil
	}
	return Round(principal.Mul(r).Mul(factor).Div(denom)), nil
}

// Balance returns the outstanding principal after k level payments
func Balance(principal, r decimal.Decimal, n, k int) (decimal.Decimal, error) {
	payment, err := Annuity(principal, r, n)
	if err != nil {
		return decimal.Zero, err
	}
	if k <= 0 {
		return principal, nil
	}
	if r.IsZero() {
		return Round(principal.Sub(payment.Mul(decimal.NewFromInt(int64(k))))), nil
	}
	factor := Pow(one.Add(r), k)
	paid := payment.Mul(factor.Sub(one)).Div(r)
	return Round(principal.Mul(factor).Sub(paid)), nil
}

// Ipmt returns the interest portion of payment number per (1-based) of a
// level-payment schedule, as a positive magnitude
func Ipmt(r decimal.Decimal, per, n int, principal decimal.Decimal) (decimal.Decimal, error) {
	if per < 1 || per > n {
		return decimal.Zero, errors.New("payment period out of range")
	}
	before, err := Balance(principal, r, n, per-1)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(before.Mul(r)), nil
}

// Ppmt returns the principal portion of payment number per (1-based)
func Ppmt(r decimal.Decimal, per, n int, principal decimal.Decimal) (decimal.Decimal, error) {
	payment, err := Annuity(principal, r, n)
	if err != nil {
		return decimal.Zero, err
	}
	interest, err := Ipmt(r, per, n, principal)
	if err != nil {
		return decimal.Zero, err
	}
	return payment.Sub(interest), nil
}
