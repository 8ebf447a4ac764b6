package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultHorizonMonths is the projection length used when a caller does not
// supply an explicit window (30 years).
const DefaultHorizonMonths = 360

// DaysPerMonth approximates a calendar month when converting day spans into months
const DaysPerMonth = 30.44

var (
	// ExtractionSentinel is the far-future extraction date assigned to assets without a sell date
	ExtractionSentinel = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

	// DividendWithdrawSentinel is the default reinvest→withdraw switch date (never withdraw)
	DividendWithdrawSentinel = time.Date(2200, time.January, 1, 0, 0, 0, 0, time.UTC)

	// DefaultPensionEndDate ends pension projections when no end date is configured
	DefaultPensionEndDate = time.Date(2070, time.January, 1, 0, 0, 0, 0, time.UTC)

	// DefaultSalaryEndDate ends salary streams when no end date is configured
	DefaultSalaryEndDate = time.Date(2070, time.January, 1, 0, 0, 0, 0, time.UTC)
)

var (
	minRatePct = decimal.NewFromInt(-50)
	maxRatePct = decimal.NewFromInt(100)
)

// MonthStart normalizes t to the first day of its month (UTC, midnight)
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the month start n months after t (n may be negative)
func AddMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the calendar month difference between from and to,
// ignoring the day of month: (to.year - from.year)*12 + (to.month - from.month)
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// MonthsFromDays converts the day span between from and to into an
// approximate month count (days / 30.44, rounded half away from zero)
func MonthsFromDays(from, to time.Time) int {
	days := to.Sub(from).Hours() / 24
	return int(math.Round(days / DaysPerMonth))
}

// MonthRange returns n consecutive month starts beginning at start
func MonthRange(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	dates := make([]time.Time, n)
	first := MonthStart(start)
	for i := 0; i < n; i++ {
		dates[i] = AddMonths(first, i)
	}
	return dates
}

// NormalizeRate parses a percentage that may carry a trailing "%" sign and
// checks that it lies within the accepted range [-50, 100]
func NormalizeRate(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if cleaned == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q: %w", raw, err)
	}
	if err := ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// ValidateRate ensures an annual percentage is within [-50, 100]
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThan(minRatePct) || rate.GreaterThan(maxRatePct) {
		return errors.New("rate must be between -50 and 100 percent")
	}
	return nil
}

// ParseDate accepts ISO (2006-01-02), day-first (02/01/2006) and month-only
// (2006-01) forms and returns the month start
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2006-01", "2/1/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return MonthStart(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
