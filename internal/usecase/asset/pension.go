package asset

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// PensionProjector accumulates like a stock until the conversion date, then
// turns the balance into a fixed monthly payout of value ÷ coefficient.
// Employer (external) deposits grow the balance without touching the owner's cash flow.
type PensionProjector struct {
	asset *domain.Asset
}

// Project implements Projector. Rows after the pension end date or the
// extraction date are dropped.
func (p *PensionProjector) Project(horizonMonths int) (domain.Series, error) {
	a := p.asset
	acc := newAccumulator(a)
	book := ledger{deposits: a.Deposits}
	endDate := a.PensionEndDate()
	extraction := a.ExtractionDate()
	coefficient := a.Coefficient()

	var conversion time.Time
	if a.ConversionDate != nil {
		conversion = domain.MonthStart(*a.ConversionDate)
	}

	out := domain.Series{EntityID: a.ID}
	value := a.OpeningValue()
	converted := false
	payout := decimal.Zero
	for _, date := range domain.MonthRange(a.StartDate, horizonMonths) {
		if date.After(endDate) || date.After(extraction) {
			break
		}
		if !conversion.IsZero() && !converted && !date.Before(conversion) {
			payout = finmath.Round(value.Div(coefficient))
			value = decimal.Zero
			converted = true
		}

		row := domain.Row{Date: date}
		if converted {
			row.CashFlow = payout
			row.Flows.PensionPayout = payout
		} else {
			m := book.at(date)
			value = value.Add(m.valueDelta)
			value = acc.charge(value, date)
			value = acc.grow(value)
			row.CashFlow = m.cashFlow
			row.Flows = m.flows
			if s := a.RevenueStream; s != nil && s.Type == domain.StreamTypePension && date.After(domain.MonthStart(s.StartDate)) {
				row.CashFlow = row.CashFlow.Add(s.Amount)
				row.Flows.PensionPayout = s.Amount
			}
		}
		row.Value = value
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
