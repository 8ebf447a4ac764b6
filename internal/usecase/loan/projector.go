// Package loan builds the amortization schedule of each loan variant.
// Balances are reported negative while owed; payments are negative cash flow.
package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// IndexSource supplies the index calendars used by the pegged variants
type IndexSource interface {
	PrimeCalendar(loanStart time.Time, durationMonths int) ([]domain.RateChange, error)
	CPILevels(loanStart time.Time, durationMonths int, expectedPct decimal.Decimal, sink domain.DiagnosticSink) ([]domain.CPIPoint, error)
}

// Projector produces a loan's monthly schedule, limited to horizonMonths from its start
type Projector interface {
	Project(horizonMonths int) (domain.Series, error)
}

// NewProjector returns the projector for the loan's variant.
// Pegged variants need a non-nil index source.
func NewProjector(l *domain.Loan, index IndexSource, sink domain.DiagnosticSink) (Projector, error) {
	sink = domain.SinkOrNop(sink)
	switch l.Type {
	case domain.LoanTypeFixed:
		return &FixedProjector{loan: l}, nil
	case domain.LoanTypeVariable:
		return &VariableProjector{loan: l}, nil
	case domain.LoanTypePrimePegged, domain.LoanTypeCPIPegged:
		if index == nil {
			return nil, fmt.Errorf("%s loan %q needs index data: %w", l.Type, l.Name, domain.ErrIndexDataUnavailable)
		}
		if l.Type == domain.LoanTypePrimePegged {
			return &PrimePeggedProjector{loan: l, index: index}, nil
		}
		return &CPIPeggedProjector{loan: l, index: index, sink: sink}, nil
	default:
		return nil, fmt.Errorf("unknown loan type %q", l.Type)
	}
}

// amortize builds a level-payment schedule of n months starting at start
func amortize(start time.Time, principal, annualPct decimal.Decimal, n int) ([]domain.Row, error) {
	rate := finmath.MonthlyRate(annualPct)
	payment, err := finmath.Annuity(principal, rate, n)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.Row, 0, n)
	balance := principal
	for i := 0; i < n; i++ {
		interest := finmath.Round(balance.Mul(rate))
		capital := payment.Sub(interest)
		balance = balance.Sub(capital)
		rows = append(rows, domain.Row{
			Date:     domain.AddMonths(start, i),
			Value:    balance.Neg(),
			CashFlow: payment.Neg(),
			Flows:    domain.Flows{Interest: interest, Principal: capital},
		})
	}
	return rows, nil
}

// finish applies the repayment cut-off and the horizon limit
func finish(l *domain.Loan, rows []domain.Row, horizonMonths int) domain.Series {
	limit := domain.AddMonths(domain.MonthStart(l.StartDate), horizonMonths)
	if l.RepaymentDate != nil {
		if repay := domain.MonthStart(*l.RepaymentDate); repay.Before(limit) {
			limit = repay
		}
	}
	return domain.Series{EntityID: l.ID, Rows: rows}.Before(limit)
}
