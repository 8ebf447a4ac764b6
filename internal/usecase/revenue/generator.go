// Package revenue generates the cash-flow series of standalone and attached
// revenue streams (salary and rent). Dividend and pension terms are consumed
// by the asset projectors instead.
package revenue

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// Generator produces a stream's cash-flow rows over a horizon in months
type Generator interface {
	CashFlow(horizonMonths int) (domain.Series, error)
}

// NewGenerator returns the generator for the stream's type.
// Dividend and pension streams cannot produce cash flow on their own.
func NewGenerator(s *domain.RevenueStream, sink domain.DiagnosticSink) (Generator, error) {
	sink = domain.SinkOrNop(sink)
	switch s.Type {
	case domain.StreamTypeSalary:
		return &Salary{stream: s}, nil
	case domain.StreamTypeRent:
		return &Rent{stream: s, sink: sink}, nil
	case domain.StreamTypeDividend, domain.StreamTypePension:
		return nil, fmt.Errorf("%s stream has no standalone cash flow: %w", s.Type, domain.ErrUnsupported)
	default:
		return nil, fmt.Errorf("unknown revenue stream type %q", s.Type)
	}
}

// Salary yields one row per year carrying the annual amount grown by the
// yearly growth rate
type Salary struct {
	stream *domain.RevenueStream
}

// CashFlow implements Generator. Rows dated on or after the end date are dropped.
func (g *Salary) CashFlow(horizonMonths int) (domain.Series, error) {
	s := g.stream
	start := domain.MonthStart(s.StartDate)
	end := domain.DefaultSalaryEndDate
	if s.EndDate != nil {
		end = domain.MonthStart(*s.EndDate)
	}

	out := domain.Series{EntityID: s.ID}
	factor := decimal.NewFromInt(1).Add(finmath.Fraction(s.GrowthRate))
	for k := 0; k < horizonMonths/12; k++ {
		date := domain.AddMonths(start, 12*k)
		if !date.Before(end) {
			break
		}
		amount := finmath.Round(s.Amount.Mul(finmath.Pow(factor, k)))
		out.Rows = append(out.Rows, domain.Row{
			Date:     date,
			CashFlow: amount,
			Flows:    domain.Flows{Revenue: amount},
		})
	}
	return out, nil
}

// Rent yields one row per payment period, net of the flat tax rate
type Rent struct {
	stream *domain.RevenueStream
	sink   domain.DiagnosticSink
}

// CashFlow implements Generator
func (g *Rent) CashFlow(horizonMonths int) (domain.Series, error) {
	s := g.stream
	start := domain.MonthStart(s.StartDate)
	periodMonths := s.Period.Months()

	periods := horizonMonths / periodMonths
	if s.EndDate != nil {
		// months counted inclusively from start through the end month
		held := domain.MonthsBetween(start, *s.EndDate) + 1
		if held < 0 {
			held = 0
		}
		if byEnd := held / periodMonths; byEnd < periods {
			periods = byEnd
		}
	}

	out := domain.Series{EntityID: s.ID}
	if periods <= 0 {
		g.sink.Emit(domain.DiagnosticEvent{
			Level:    domain.DiagnosticInfo,
			Code:     domain.CodeRevenueStreamNoOutput,
			EntityID: s.ID,
			Date:     start,
			Message:  "rent stream produces no payment periods",
		})
		return out, nil
	}

	net := decimal.NewFromInt(1).Sub(finmath.Fraction(s.TaxRate))
	for i := 0; i < periods; i++ {
		// growth compounds over fractional years, not whole ones
		elapsed := i * periodMonths
		amount := finmath.Round(s.Amount.Mul(finmath.Growth(s.GrowthRate, elapsed)).Mul(net))
		out.Rows = append(out.Rows, domain.Row{
			Date:     domain.AddMonths(start, elapsed),
			CashFlow: amount,
			Flows:    domain.Flows{Revenue: amount},
		})
	}
	return out, nil
}
