package loan

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// FixedProjector amortizes at a constant rate over the full duration
type FixedProjector struct {
	loan *domain.Loan
}

// Project implements Projector
func (p *FixedProjector) Project(horizonMonths int) (domain.Series, error) {
	l := p.loan
	rows, err := amortize(domain.MonthStart(l.StartDate), l.Principal(), l.InterestRateAnnualPct, l.DurationMonths)
	if err != nil {
		return domain.Series{}, err
	}
	return finish(l, rows, horizonMonths), nil
}

// VariableProjector re-evaluates the closed-form interest and principal split
// each month with a base rate that grows by the inflation rate every twelfth month.
// The split is always taken against the original principal and duration.
type VariableProjector struct {
	loan *domain.Loan
}

// Project implements Projector
func (p *VariableProjector) Project(horizonMonths int) (domain.Series, error) {
	l := p.loan
	n := l.DurationMonths
	principal := l.Principal()
	base := finmath.Fraction(l.InterestRateAnnualPct)
	margin := finmath.Fraction(l.MarginPct)
	inflation := decimal.NewFromInt(1).Add(finmath.Fraction(l.InflationRateAnnualPct))
	twelve := decimal.NewFromInt(12)
	start := domain.MonthStart(l.StartDate)

	rows := make([]domain.Row, 0, n)
	paid := decimal.Zero
	for month := 1; month <= n; month++ {
		if month%12 == 0 {
			base = finmath.Round(base.Mul(inflation))
		}
		rate := finmath.Round(base.Add(margin).Div(twelve))

		interest, err := finmath.Ipmt(rate, month, n, principal)
		if err != nil {
			return domain.Series{}, err
		}
		capital, err := finmath.Ppmt(rate, month, n, principal)
		if err != nil {
			return domain.Series{}, err
		}
		paid = paid.Add(capital)
		rows = append(rows, domain.Row{
			Date:     domain.AddMonths(start, month-1),
			Value:    principal.Sub(paid).Neg(),
			CashFlow: interest.Add(capital).Neg(),
			Flows:    domain.Flows{Interest: interest, Principal: capital},
		})
	}
	return finish(l, rows, horizonMonths), nil
}
