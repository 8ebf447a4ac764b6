// Package asset projects the monthly value and cash-flow trajectory of each
// asset variant.
package asset

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// Projector produces an asset's monthly series over a horizon in months
type Projector interface {
	Project(horizonMonths int) (domain.Series, error)
}

// NewProjector returns the projector for the asset's variant
func NewProjector(a *domain.Asset, sink domain.DiagnosticSink) (Projector, error) {
	sink = domain.SinkOrNop(sink)
	switch a.Type {
	case domain.AssetTypeCash:
		return &CashProjector{asset: a}, nil
	case domain.AssetTypeRealEstate:
		return &RealEstateProjector{asset: a, sink: sink}, nil
	case domain.AssetTypeStock:
		return &StockProjector{asset: a, sink: sink}, nil
	case domain.AssetTypePension:
		return &PensionProjector{asset: a}, nil
	default:
		return nil, fmt.Errorf("unknown asset type %q", a.Type)
	}
}

var one = decimal.NewFromInt(1)

// accumulator is the fee-and-growth routine shared by the stock and pension projectors
type accumulator struct {
	monthlyRate decimal.Decimal
	yearlyFee   decimal.Decimal // fraction
}

func newAccumulator(a *domain.Asset) accumulator {
	return accumulator{
		monthlyRate: finmath.MonthlyRate(a.AppreciationRateAnnualPct),
		yearlyFee:   finmath.Fraction(a.YearlyFeePct),
	}
}

// charge deducts the yearly fee in January
func (acc accumulator) charge(value decimal.Decimal, date time.Time) decimal.Decimal {
	if date.Month() != time.January || acc.yearlyFee.IsZero() {
		return value
	}
	return finmath.Round(value.Mul(one.Sub(acc.yearlyFee)))
}

// grow applies one month of simple-rate appreciation
func (acc accumulator) grow(value decimal.Decimal) decimal.Decimal {
	return finmath.Round(value.Mul(one.Add(acc.monthlyRate)))
}

// movement is the effect of the deposit and withdrawal entries active in one month
type movement struct {
	valueDelta decimal.Decimal
	cashFlow   decimal.Decimal
	flows      domain.Flows
}

// ledger applies an asset's deposit and withdrawal entries
type ledger struct {
	deposits    []*domain.CashFlowEntry
	withdrawals []*domain.CashFlowEntry

	// externalCashFlow reports externally funded deposits as positive cash flow
	externalCashFlow bool
}

func newLedger(a *domain.Asset) ledger {
	return ledger{deposits: a.Deposits, withdrawals: a.Withdrawals, externalCashFlow: true}
}

func (l ledger) at(date time.Time) movement {
	m := movement{}
	for _, d := range l.deposits {
		if !d.Covers(date) {
			continue
		}
		m.valueDelta = m.valueDelta.Add(d.Amount)
		if d.FromOwnCapital {
			m.cashFlow = m.cashFlow.Sub(d.Amount)
			m.flows.OwnCapitalDeposit = m.flows.OwnCapitalDeposit.Add(d.Amount)
			continue
		}
		if l.externalCashFlow {
			m.cashFlow = m.cashFlow.Add(d.Amount)
		}
		m.flows.ExternalDeposit = m.flows.ExternalDeposit.Add(d.Amount)
	}
	for _, w := range l.withdrawals {
		if !w.Covers(date) {
			continue
		}
		m.valueDelta = m.valueDelta.Sub(w.Amount)
		m.cashFlow = m.cashFlow.Add(w.Amount)
		m.flows.Withdrawal = m.flows.Withdrawal.Add(w.Amount)
	}
	return m
}
