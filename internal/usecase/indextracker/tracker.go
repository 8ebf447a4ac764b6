// Package indextracker turns raw benchmark-rate and price-index observations
// into the per-loan calendars consumed by the pegged loan projectors.
package indextracker

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

var (
	primeLayouts = []string{"02/01/2006", "2/1/2006", "2006-01-02"}
	cpiLayouts   = []string{"01/06", "1/06", "2006-01", "2006-01-02"}
)

// Tracker holds one request's index reference data
type Tracker struct {
	data domain.IndexData
}

// NewTracker creates a tracker over the given raw observations
func NewTracker(data domain.IndexData) *Tracker {
	return &Tracker{data: data}
}

type primePoint struct {
	start time.Time
	rate  decimal.Decimal
}

// PrimeCalendar returns the benchmark-rate breakpoints that fall strictly after
// loanStart, sorted by date. Consecutive duplicate rates are collapsed first.
// CumulativeChange is measured against the rate in force at loanStart; when no
// observation precedes loanStart the earliest observation is used as origin.
func (t *Tracker) PrimeCalendar(loanStart time.Time, durationMonths int) ([]domain.RateChange, error) {
	points, err := t.primePoints()
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no benchmark rate observations: %w", domain.ErrIndexDataUnavailable)
	}

	// index of the first observation on or after loanStart
	pos := sort.Search(len(points), func(i int) bool { return !points[i].start.Before(loanStart) })
	origin := points[0].rate
	if pos > 0 {
		origin = points[pos-1].rate
	}

	loanEnd := domain.AddMonths(loanStart, durationMonths)
	var calendar []domain.RateChange
	prev := origin
	for _, p := range points {
		if !p.start.After(loanStart) {
			continue
		}
		calendar = append(calendar, domain.RateChange{
			Start:            p.start,
			Rate:             p.rate,
			Change:           p.rate.Sub(prev),
			CumulativeChange: p.rate.Sub(origin),
			MonthsToLoanEnd:  domain.MonthsFromDays(p.start, loanEnd),
		})
		prev = p.rate
	}
	return calendar, nil
}

// OriginRate returns the benchmark rate in force at loanStart
func (t *Tracker) OriginRate(loanStart time.Time) (decimal.Decimal, error) {
	points, err := t.primePoints()
	if err != nil {
		return decimal.Zero, err
	}
	if len(points) == 0 {
		return decimal.Zero, fmt.Errorf("no benchmark rate observations: %w", domain.ErrIndexDataUnavailable)
	}
	pos := sort.Search(len(points), func(i int) bool { return !points[i].start.Before(loanStart) })
	if pos == 0 {
		return points[0].rate, nil
	}
	return points[pos-1].rate, nil
}

// primePoints parses the benchmark observations, orders them by start date and
// drops observations that repeat the previous rate
func (t *Tracker) primePoints() ([]primePoint, error) {
	parsed := make([]primePoint, 0, len(t.data.Prime))
	for _, obs := range t.data.Prime {
		start, err := parseFirst(obs.EffectiveStart, primeLayouts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse benchmark rate date: %w", err)
		}
		parsed = append(parsed, primePoint{start: start, rate: obs.Rate})
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].start.Before(parsed[j].start) })

	var points []primePoint
	for i, p := range parsed {
		if i > 0 && p.rate.Equal(parsed[i-1].rate) {
			continue
		}
		points = append(points, p)
	}
	return points, nil
}

type cpiPoint struct {
	date  time.Time
	level decimal.Decimal
}

// CPIHistory returns the parsed price-index observations on or after
// loanStart, falling back to every observation when none qualify.
func (t *Tracker) CPIHistory(loanStart time.Time, durationMonths int) ([]domain.CPIPoint, error) {
	all, err := t.cpiPoints()
	if err != nil {
		return nil, err
	}
	loanEnd := domain.AddMonths(loanStart, durationMonths)
	var filtered []cpiPoint
	for _, p := range all {
		if !p.date.Before(loanStart) {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		filtered = all
	}
	out := make([]domain.CPIPoint, len(filtered))
	for i, p := range filtered {
		out[i] = domain.CPIPoint{
			Date:            p.date,
			Level:           p.level,
			MonthsToLoanEnd: domain.MonthsFromDays(p.date, loanEnd),
		}
	}
	return out, nil
}

// CPILevels returns one price-index level per month in [loanStart, loanStart+durationMonths].
// Gaps between observations are forward-filled and months past the last
// observation grow by (1 + expectedPct/100)^(1/12) per month. The first month
// is seeded from the latest observation on or before loanStart; when none
// exists the earliest later observation is used and a fallback event is emitted.
func (t *Tracker) CPILevels(loanStart time.Time, durationMonths int, expectedPct decimal.Decimal, sink domain.DiagnosticSink) ([]domain.CPIPoint, error) {
	sink = domain.SinkOrNop(sink)
	points, err := t.cpiPoints()
	if err != nil {
		return nil, err
	}

	start := domain.MonthStart(loanStart)
	loanEnd := domain.AddMonths(start, durationMonths)
	last := points[len(points)-1].date
	monthly := finmath.PowFrac(decimal.NewFromInt(1).Add(finmath.Fraction(expectedPct)), 1.0/12)

	byMonth := make(map[time.Time]decimal.Decimal, len(points))
	for _, p := range points {
		byMonth[p.date] = p.level
	}

	level, seeded := seedLevel(points, start)
	if !seeded {
		sink.Emit(domain.DiagnosticEvent{
			Level:   domain.DiagnosticWarning,
			Code:    domain.CodeCPIFallback,
			Date:    start,
			Message: "no price-index observation at or before loan start, using earliest observation",
			Fields:  map[string]string{"first_observation": points[0].date.Format("2006-01-02")},
		})
	}

	if start.After(last) {
		level = finmath.Round(level.Mul(finmath.Pow(monthly, domain.MonthsBetween(last, start))))
	}

	out := make([]domain.CPIPoint, 0, durationMonths+1)
	for i := 0; i <= durationMonths; i++ {
		date := domain.AddMonths(start, i)
		extrapolated := date.After(last)
		if observed, ok := byMonth[date]; ok {
			level = observed
		} else if extrapolated && i > 0 {
			level = finmath.Round(level.Mul(monthly))
		}
		out = append(out, domain.CPIPoint{
			Date:            date,
			Level:           level,
			MonthsToLoanEnd: domain.MonthsFromDays(date, loanEnd),
			Extrapolated:    extrapolated,
		})
	}
	return out, nil
}

func seedLevel(points []cpiPoint, start time.Time) (decimal.Decimal, bool) {
	seed := decimal.Zero
	found := false
	for _, p := range points {
		if p.date.After(start) {
			break
		}
		seed = p.level
		found = true
	}
	if !found {
		return points[0].level, false
	}
	return seed, true
}

func (t *Tracker) cpiPoints() ([]cpiPoint, error) {
	var points []cpiPoint
	seen := make(map[time.Time]bool)
	for _, obs := range t.data.CPI {
		date, err := parseFirst(obs.YearMonth, cpiLayouts)
		if err != nil {
			continue
		}
		date = domain.MonthStart(date)
		if seen[date] {
			continue
		}
		seen[date] = true
		points = append(points, cpiPoint{date: date, level: obs.Level})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no valid CPI data available after date parsing: %w", domain.ErrIndexDataUnavailable)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].date.Before(points[j].date) })
	return points, nil
}

func parseFirst(raw string, layouts []string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
