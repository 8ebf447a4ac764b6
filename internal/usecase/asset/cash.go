package asset

import (
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// CashProjector is a deposit and withdrawal ledger without appreciation
type CashProjector struct {
	asset *domain.Asset
}

// Project implements Projector. Rows after the extraction date are dropped.
func (p *CashProjector) Project(horizonMonths int) (domain.Series, error) {
	a := p.asset
	acc := accumulator{yearlyFee: finmath.Fraction(a.YearlyFeePct)}
	book := newLedger(a)
	extraction := a.ExtractionDate()

	out := domain.Series{EntityID: a.ID}
	value := a.OpeningValue()
	for _, date := range domain.MonthRange(a.StartDate, horizonMonths) {
		if date.After(extraction) {
			break
		}
		value = acc.charge(value, date)
		m := book.at(date)
		value = value.Add(m.valueDelta)
		out.Rows = append(out.Rows, domain.Row{
			Date:     date,
			Value:    value,
			CashFlow: m.cashFlow,
			Flows:    m.flows,
		})
	}
	return out, nil
}
