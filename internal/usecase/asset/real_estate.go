package asset

import (
	"errors"
	"time"

	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
	"github.com/simaogato/wealthflow-planner/internal/usecase/revenue"
)

// RealEstateProjector follows the future-value recurrence
// v(n) = v(n-1)·(1+r) − payment, starting one month after the opening value.
// An attached revenue stream replaces the cash flow on the dates it pays.
type RealEstateProjector struct {
	asset *domain.Asset
	sink  domain.DiagnosticSink
}

// Project implements Projector
func (p *RealEstateProjector) Project(horizonMonths int) (domain.Series, error) {
	a := p.asset
	rate := finmath.MonthlyRate(a.AppreciationRateAnnualPct)
	extraction := a.ExtractionDate()

	income, err := p.streamIncome(horizonMonths)
	if err != nil {
		return domain.Series{}, err
	}

	out := domain.Series{EntityID: a.ID}
	value := a.OpeningValue()
	for _, date := range domain.MonthRange(a.StartDate, horizonMonths) {
		if date.After(extraction) {
			break
		}
		value = finmath.Round(value.Mul(one.Add(rate)).Sub(a.MonthlyPayment))
		row := domain.Row{Date: date, Value: value}
		if r, ok := income[date]; ok {
			row.CashFlow = r.CashFlow
			row.Flows.Revenue = r.CashFlow
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func (p *RealEstateProjector) streamIncome(horizonMonths int) (map[time.Time]domain.Row, error) {
	s := p.asset.RevenueStream
	if s == nil {
		return nil, nil
	}
	gen, err := revenue.NewGenerator(s, p.sink)
	if errors.Is(err, domain.ErrUnsupported) {
		p.sink.Emit(domain.DiagnosticEvent{
			Level:    domain.DiagnosticWarning,
			Code:     domain.CodeRevenueStreamNoOutput,
			EntityID: p.asset.ID,
			Message:  "attached revenue stream type does not produce cash flow for real estate",
			Fields:   map[string]string{"stream_type": string(s.Type)},
		})
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	series, err := gen.CashFlow(horizonMonths)
	if err != nil {
		return nil, err
	}
	return series.ByDate(), nil
}
