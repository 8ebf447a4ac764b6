package loan

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// CPIPeggedProjector revalues the principal by the month-over-month change of
// the price index, then re-amortizes it over the remaining term. The schedule
// stops early once the balance is repaid.
type CPIPeggedProjector struct {
	loan  *domain.Loan
	index IndexSource
	sink  domain.DiagnosticSink
}

// Project implements Projector
func (p *CPIPeggedProjector) Project(horizonMonths int) (domain.Series, error) {
	l := p.loan
	n := l.DurationMonths
	start := domain.MonthStart(l.StartDate)

	levels, err := p.index.CPILevels(start, n, l.ExpectedCPIIncrease(), p.sink)
	if err != nil {
		return domain.Series{}, err
	}
	if len(levels) < n {
		return domain.Series{}, fmt.Errorf("price index covers %d of %d months: %w", len(levels), n, domain.ErrIndexDataUnavailable)
	}

	rate := finmath.MonthlyRate(l.InterestRateAnnualPct)
	principal := l.Principal()
	rows := make([]domain.Row, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && !levels[i-1].Level.IsZero() {
			principal = finmath.Round(principal.Mul(levels[i].Level).Div(levels[i-1].Level))
		}
		interest := finmath.Round(principal.Mul(rate))
		payment, err := finmath.Annuity(principal, rate, n-i)
		if err != nil {
			return domain.Series{}, err
		}
		capital := payment.Sub(interest)
		principal = principal.Sub(capital)
		rows = append(rows, domain.Row{
			Date:     levels[i].Date,
			Value:    principal.Neg(),
			CashFlow: payment.Neg(),
			Flows:    domain.Flows{Interest: interest, Principal: capital},
		})
		if !principal.GreaterThan(decimal.Zero) {
			break
		}
	}
	return finish(l, rows, horizonMonths), nil
}
