package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// SummaryService reports a portfolio's current state without projecting it
type SummaryService struct {
	PortfolioRepo domain.PortfolioRepository

	now func() time.Time
}

// NewSummaryService creates a new SummaryService instance
func NewSummaryService(portfolioRepo domain.PortfolioRepository) *SummaryService {
	return &SummaryService{
		PortfolioRepo: portfolioRepo,
		now:           time.Now,
	}
}

// GetSummary calculates the point-in-time totals of a portfolio
// Logic:
//   - Assets: sum of current values, falling back to original values
//   - Liabilities: sum of current balances, falling back to original values
//   - Revenue: active salary, rent and pension streams as a monthly amount after tax
//   - Loan payments: level annuity over the full duration at the stated rate
func (s *SummaryService) GetSummary(ctx context.Context, portfolioID uuid.UUID) (*domain.PortfolioSummary, error) {
	// 1. Load the portfolio
	p, err := s.PortfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	asOf := s.now().UTC()

	// 2. Sum asset values and collect attached streams
	totalAssets := decimal.Zero
	streams := append([]*domain.RevenueStream(nil), p.RevenueStreams...)
	for _, a := range p.Assets {
		totalAssets = totalAssets.Add(a.OpeningValue())
		if a.RevenueStream != nil {
			streams = append(streams, a.RevenueStream)
		}
	}

	// 3. Sum loan balances and payments
	totalLiabilities := decimal.Zero
	payments := decimal.Zero
	for _, l := range p.Loans {
		totalLiabilities = totalLiabilities.Add(l.Principal())
		payment, err := finmath.Annuity(l.Principal(), finmath.MonthlyRate(l.InterestRateAnnualPct), l.DurationMonths)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate payment of loan %q: %w", l.Name, err)
		}
		payments = payments.Add(payment)
	}

	// 4. Convert active streams to a monthly amount
	revenue := decimal.Zero
	for _, st := range streams {
		if isActive(st, asOf) {
			revenue = revenue.Add(monthlyAmount(st))
		}
	}

	revenue = finmath.Money(revenue)
	payments = finmath.Money(payments)
	return &domain.PortfolioSummary{
		PortfolioID:         p.ID,
		TotalAssets:         finmath.Money(totalAssets),
		TotalLiabilities:    finmath.Money(totalLiabilities),
		NetWorth:            finmath.Money(totalAssets.Sub(totalLiabilities)),
		MonthlyRevenue:      revenue,
		MonthlyLoanPayments: payments,
		MonthlyNetCashFlow:  revenue.Sub(payments),
		AssetCount:          len(p.Assets),
		LoanCount:           len(p.Loans),
		RevenueStreamCount:  len(streams),
		AsOf:                asOf,
	}, nil
}

func isActive(s *domain.RevenueStream, asOf time.Time) bool {
	if s.StartDate.After(asOf) {
		return false
	}
	return s.EndDate == nil || !s.EndDate.Before(asOf)
}

// monthlyAmount is the stream's after-tax income per month. Dividends depend
// on the asset value and are left out.
func monthlyAmount(s *domain.RevenueStream) decimal.Decimal {
	var monthly decimal.Decimal
	switch s.Type {
	case domain.StreamTypeSalary:
		monthly = s.Amount.Div(decimal.NewFromInt(12))
	case domain.StreamTypeRent:
		period := s.Period
		if period == "" {
			period = domain.PeriodMonthly
		}
		monthly = s.Amount.Div(decimal.NewFromInt(int64(period.Months())))
	case domain.StreamTypePension:
		monthly = s.Amount
	default:
		return decimal.Zero
	}
	return monthly.Mul(decimal.NewFromInt(1).Sub(finmath.Fraction(s.TaxRate)))
}
