package asset

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// highDividendThreshold flags unusually large single-month dividends
var highDividendThreshold = decimal.NewFromInt(50000)

// StockProjector accumulates deposits, appreciation and dividends, net of a
// yearly fee. When the asset carries value history the projection resumes
// from the latest entry and the first month only records cash flows.
type StockProjector struct {
	asset *domain.Asset
	sink  domain.DiagnosticSink
}

// Project implements Projector. The row at or after the extraction date closes
// the position with a zero value.
func (p *StockProjector) Project(horizonMonths int) (domain.Series, error) {
	a := p.asset
	acc := newAccumulator(a)
	book := newLedger(a)
	extraction := a.ExtractionDate()
	crashes := crashesByMonth(a.CrashEvents)

	var dividend *domain.RevenueStream
	if a.RevenueStream != nil && a.RevenueStream.Type == domain.StreamTypeDividend {
		dividend = a.RevenueStream
	}

	value, start, resumed := p.startingPoint()
	out := domain.Series{EntityID: a.ID}
	for i, date := range domain.MonthRange(start, horizonMonths) {
		if date.After(extraction) {
			break
		}
		// the resumed value already includes this month's growth and entries
		settled := i == 0 && resumed
		if !settled {
			value = acc.charge(value, date)
			value = acc.grow(value)
		}

		m := book.at(date)
		if !settled {
			value = value.Add(m.valueDelta)
		}
		for _, pct := range crashes[date] {
			value = finmath.Round(value.Mul(one.Sub(pct)))
		}

		cashFlow, flows := m.cashFlow, m.flows
		if dividend != nil {
			amount := p.dividend(i, date, value, dividend)
			if date.Before(dividend.WithdrawStart()) {
				value = value.Add(amount)
			} else {
				cashFlow = cashFlow.Add(amount)
				flows.Dividend = amount
			}
		}

		out.Rows = append(out.Rows, domain.Row{
			Date:     date,
			Value:    value,
			CashFlow: cashFlow,
			Flows:    flows,
		})
	}

	if n := len(out.Rows); n > 0 && !out.Rows[n-1].Date.Before(extraction) {
		out.Rows[n-1].Value = decimal.Zero
	}
	return out, nil
}

func (p *StockProjector) startingPoint() (decimal.Decimal, time.Time, bool) {
	if latest, ok := p.asset.LatestHistory(); ok {
		return latest.Value, domain.MonthStart(latest.Date), true
	}
	return p.asset.OpeningValue(), domain.MonthStart(p.asset.StartDate), false
}

// dividend returns the after-tax payout for month i, or zero when the payout
// frequency skips this month. Unknown frequencies pay monthly.
func (p *StockProjector) dividend(i int, date time.Time, value decimal.Decimal, s *domain.RevenueStream) decimal.Decimal {
	payouts := int64(12)
	switch s.PayoutFrequency {
	case domain.PeriodQuarterly:
		if i%3 != 0 {
			return decimal.Zero
		}
		payouts = 4
	case domain.PeriodYearly:
		if i%12 != 0 {
			return decimal.Zero
		}
		payouts = 1
	}

	share := finmath.Fraction(s.DividendYield).Div(decimal.NewFromInt(payouts))
	amount := finmath.Round(value.Mul(share).Mul(one.Sub(finmath.Fraction(s.TaxRate))))

	if amount.IsNegative() {
		p.sink.Emit(domain.DiagnosticEvent{
			Level:    domain.DiagnosticError,
			Code:     domain.CodeDividendNegative,
			EntityID: p.asset.ID,
			Date:     date,
			Message:  "negative dividend clamped to zero, tax rate likely above 100 percent",
			Fields:   map[string]string{"amount": amount.StringFixed(2), "tax": s.TaxRate.String()},
		})
		return decimal.Zero
	}
	if amount.GreaterThan(highDividendThreshold) {
		p.sink.Emit(domain.DiagnosticEvent{
			Level:    domain.DiagnosticWarning,
			Code:     domain.CodeDividendHigh,
			EntityID: p.asset.ID,
			Date:     date,
			Message:  "unusually high monthly dividend",
			Fields: map[string]string{
				"amount": amount.StringFixed(2),
				"value":  value.StringFixed(2),
				"yield":  s.DividendYield.String(),
			},
		})
	}
	return amount
}

func crashesByMonth(events []domain.CrashEvent) map[time.Time][]decimal.Decimal {
	out := make(map[time.Time][]decimal.Decimal, len(events))
	for _, e := range events {
		month := domain.MonthStart(e.Date)
		out[month] = append(out[month], e.Percent)
	}
	return out
}
