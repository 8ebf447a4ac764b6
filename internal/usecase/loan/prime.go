package loan

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

// PrimePeggedProjector splits the loan into segments at every benchmark-rate
// change after origination. Each segment re-amortizes the balance outstanding
// just before it over the months left to the loan end, at the base rate plus
// the cumulative benchmark change since origination.
type PrimePeggedProjector struct {
	loan  *domain.Loan
	index IndexSource
}

type segment struct {
	start            time.Time
	cumulativeChange decimal.Decimal
	months           int
}

// Project implements Projector
func (p *PrimePeggedProjector) Project(horizonMonths int) (domain.Series, error) {
	l := p.loan
	start := domain.MonthStart(l.StartDate)
	loanEnd := domain.AddMonths(start, l.DurationMonths)

	calendar, err := p.index.PrimeCalendar(start, l.DurationMonths)
	if err != nil {
		return domain.Series{}, err
	}
	segments := buildSegments(start, loanEnd, calendar)

	schedules := make([][]domain.Row, 0, len(segments))
	balance := l.Principal()
	for i, seg := range segments {
		if i > 0 {
			balance = balanceBefore(schedules[len(schedules)-1], seg.start, balance)
		}
		if seg.months <= 0 || !balance.IsPositive() {
			continue
		}
		rows, err := amortize(seg.start, balance, l.InterestRateAnnualPct.Add(seg.cumulativeChange), seg.months)
		if err != nil {
			return domain.Series{}, err
		}
		schedules = append(schedules, rows)
	}

	return finish(l, mergeNewestFirst(schedules), horizonMonths), nil
}

// buildSegments prepends the origination segment to the change calendar.
// A change in the origination month is moved to the following month.
func buildSegments(start, loanEnd time.Time, calendar []domain.RateChange) []segment {
	segments := []segment{{start: start, months: domain.MonthsFromDays(start, loanEnd)}}
	for _, c := range calendar {
		segments = append(segments, segment{
			start:            c.Start,
			cumulativeChange: c.CumulativeChange,
			months:           domain.MonthsFromDays(c.Start, loanEnd),
		})
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].start.Before(segments[j].start) })

	if len(segments) > 1 && domain.MonthStart(segments[1].start).Equal(domain.MonthStart(segments[0].start)) {
		segments[1].start = domain.AddMonths(segments[0].start, 1)
	}
	for i := range segments {
		segments[i].start = domain.MonthStart(segments[i].start)
	}
	return segments
}

// balanceBefore returns the outstanding balance of the last row dated before
// date, or fallback when the schedule has no such row
func balanceBefore(rows []domain.Row, date time.Time, fallback decimal.Decimal) decimal.Decimal {
	i := sort.Search(len(rows), func(i int) bool { return !rows[i].Date.Before(date) }) - 1
	if i < 0 {
		return fallback
	}
	return rows[i].Value.Neg()
}

// mergeNewestFirst keeps the latest segment whole and fills in each earlier
// segment only for dates before everything merged so far
func mergeNewestFirst(schedules [][]domain.Row) []domain.Row {
	var merged []domain.Row
	var minDate time.Time
	for i := len(schedules) - 1; i >= 0; i-- {
		first := merged == nil
		for _, r := range schedules[i] {
			if !first && !r.Date.Before(minDate) {
				continue
			}
			merged = append(merged, r)
		}
		for _, r := range merged {
			if minDate.IsZero() || r.Date.Before(minDate) {
				minDate = r.Date
			}
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}
