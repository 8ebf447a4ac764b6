package scenario

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

var hundred = decimal.NewFromInt(100)

// ApplyDeferred applies the deferred actions returned by Apply to a computed
// projection of portfolio, in order. Every change to an instrument series is
// carried into the portfolio-level series for the same months.
func (e *Engine) ApplyDeferred(result *domain.ProjectionResult, portfolio *domain.Portfolio, deferred []domain.Action, sink domain.DiagnosticSink) {
	sink = domain.SinkOrNop(sink)
	for i, action := range deferred {
		var err error
		switch action.Type {
		case domain.ActionMarketCrash:
			err = applyCrash(result, portfolio, action.Crash)
		case domain.ActionParamChange:
			err = applyDatedChange(result, portfolio, action)
		default:
			err = fmt.Errorf("action type %q: %w", action.Type, domain.ErrUnsupported)
		}
		if err != nil {
			unsupported(sink, i, action, err)
		}
	}
}

// applyCrash scales every affected asset point at or after the crash month by
// (1 - pct/100). A crash without a date or with a non-positive percentage is a no-op.
func applyCrash(result *domain.ProjectionResult, portfolio *domain.Portfolio, crash *domain.CrashParams) error {
	if crash == nil || crash.CrashDate == nil || !crash.CrashPct.IsPositive() {
		return nil
	}
	at := domain.MonthStart(*crash.CrashDate)
	factor := decimal.NewFromInt(1).Sub(crash.CrashPct.Div(hundred))

	deltas := make(map[time.Time]decimal.Decimal)
	for i := range result.Assets {
		proj := &result.Assets[i]
		if proj.Virtual {
			continue
		}
		a := portfolio.FindAsset(proj.AssetID)
		if a == nil || !crash.Affects(a.Type) {
			continue
		}
		for j, pt := range proj.Series {
			if pt.Date.Before(at) {
				continue
			}
			scaled := finmath.Money(pt.Value.Mul(factor))
			deltas[pt.Date] = deltas[pt.Date].Add(scaled.Sub(pt.Value))
			proj.Series[j].Value = scaled
		}
	}
	shift(result.TotalAssets, deltas)
	shift(result.NetWorth, deltas)
	return nil
}

func applyDatedChange(result *domain.ProjectionResult, portfolio *domain.Portfolio, action domain.Action) error {
	if action.TargetID == nil || action.Patch == nil || action.ActionDate == nil {
		return nil
	}
	rate, err := domain.NormalizeRate(action.Patch.Value)
	if err != nil {
		return err
	}
	at := domain.MonthStart(*action.ActionDate)

	switch {
	case action.TargetType == domain.EntityTypeAsset && action.Patch.Field == domain.FieldAppreciationRate:
		return recomputeAppreciation(result, *action.TargetID, at, rate)
	case action.TargetType == domain.EntityTypeLoan && action.Patch.Field == domain.FieldInterestRate:
		l := portfolio.FindLoan(*action.TargetID)
		if l == nil {
			return fmt.Errorf("loan %s: %w", action.TargetID, domain.ErrNotFound)
		}
		return reamortize(result, l, at, rate)
	}
	return fmt.Errorf("dated change of %s %q: %w", action.TargetType, action.Patch.Field, domain.ErrUnsupported)
}

// recomputeAppreciation keeps the value at the pivot month and compounds it at
// the new monthly rate for every later point
func recomputeAppreciation(result *domain.ProjectionResult, assetID uuid.UUID, at time.Time, annualPct decimal.Decimal) error {
	var proj *domain.AssetProjection
	for i := range result.Assets {
		if result.Assets[i].AssetID == assetID && !result.Assets[i].Virtual {
			proj = &result.Assets[i]
			break
		}
	}
	if proj == nil {
		return fmt.Errorf("asset %s: %w", assetID, domain.ErrNotFound)
	}
	pivot := firstAtOrAfter(proj.Series, at)
	if pivot < 0 {
		return nil
	}

	growth := decimal.NewFromInt(1).Add(finmath.MonthlyRate(annualPct))
	base := proj.Series[pivot].Value
	deltas := make(map[time.Time]decimal.Decimal)
	for i := pivot + 1; i < len(proj.Series); i++ {
		v := finmath.Money(base.Mul(finmath.Pow(growth, i-pivot)))
		deltas[proj.Series[i].Date] = v.Sub(proj.Series[i].Value)
		proj.Series[i].Value = v
	}
	shift(result.TotalAssets, deltas)
	shift(result.NetWorth, deltas)
	return nil
}

// reamortize re-runs the loan schedule from the pivot month at the new rate
// over the remaining term, then propagates balance and payment differences
func reamortize(result *domain.ProjectionResult, l *domain.Loan, at time.Time, annualPct decimal.Decimal) error {
	var proj *domain.LoanProjection
	for i := range result.Loans {
		if result.Loans[i].LoanID == l.ID {
			proj = &result.Loans[i]
			break
		}
	}
	if proj == nil {
		return fmt.Errorf("loan %s: %w", l.ID, domain.ErrNotFound)
	}
	pivot := firstAtOrAfter(proj.Balance, at)
	if pivot < 0 {
		return nil
	}

	var balance decimal.Decimal
	switch {
	case pivot > 0:
		balance = proj.Balance[pivot-1].Value
	case proj.Balance[0].Date.Equal(domain.MonthStart(l.StartDate)):
		balance = l.Principal()
	default:
		balance = openingBalance(proj, l)
	}
	remaining := l.DurationMonths - domain.MonthsBetween(l.StartDate, proj.Balance[pivot].Date)
	if remaining <= 0 {
		return nil
	}

	r := finmath.MonthlyRate(annualPct)
	payment, err := finmath.Annuity(balance, r, remaining)
	if err != nil {
		return err
	}

	balanceDeltas := make(map[time.Time]decimal.Decimal)
	paymentDeltas := make(map[time.Time]decimal.Decimal)
	for i := pivot; i < len(proj.Balance); i++ {
		interest := finmath.Round(balance.Mul(r))
		paid := payment
		if balance.LessThanOrEqual(decimal.Zero) {
			paid = decimal.Zero
		}
		balance = finmath.Round(balance.Sub(paid.Sub(interest)))
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		date := proj.Balance[i].Date
		newBalance := finmath.Money(balance)
		balanceDeltas[date] = newBalance.Sub(proj.Balance[i].Value)
		proj.Balance[i].Value = newBalance
		if i < len(proj.Payments) {
			newPayment := finmath.Money(paid)
			paymentDeltas[date] = newPayment.Sub(proj.Payments[i].Value)
			proj.Payments[i].Value = newPayment
		}
	}

	shift(result.TotalLiabilities, balanceDeltas)
	shift(result.NetWorth, negate(balanceDeltas))
	propagatePayments(result, l.ID, paymentDeltas)
	return nil
}

// openingBalance recovers the balance owed before the first projected row of a
// loan that started earlier, by undoing that row's payment at the loan's own
// rate: closing = opening - (payment - opening*r).
func openingBalance(proj *domain.LoanProjection, l *domain.Loan) decimal.Decimal {
	closing := proj.Balance[0].Value
	if len(proj.Payments) == 0 || proj.Payments[0].Value.IsZero() {
		return closing
	}
	growth := decimal.NewFromInt(1).Add(finmath.MonthlyRate(l.InterestRateAnnualPct))
	return finmath.Money(closing.Add(proj.Payments[0].Value).Div(growth))
}

// propagatePayments moves payment differences into the breakdown, the net
// cash flow and the running accumulated cash
func propagatePayments(result *domain.ProjectionResult, loanID uuid.UUID, deltas map[time.Time]decimal.Decimal) {
	for i := range result.Breakdown.Items {
		item := &result.Breakdown.Items[i]
		if item.Category == domain.CategoryLoanPayment && item.EntityID != nil && *item.EntityID == loanID {
			shift(item.Series, deltas)
			break
		}
	}
	shift(result.Breakdown.TotalExpense, deltas)
	outflow := negate(deltas)
	shift(result.Breakdown.Net, outflow)
	shift(result.NetCashFlow, outflow)

	cumulative := make(map[time.Time]decimal.Decimal)
	running := decimal.Zero
	for _, pt := range result.NetCashFlow {
		running = running.Add(outflow[pt.Date])
		if !running.IsZero() {
			cumulative[pt.Date] = running
		}
	}
	for i := range result.Assets {
		if result.Assets[i].Virtual {
			shift(result.Assets[i].Series, cumulative)
		}
	}
	shift(result.TotalAssets, cumulative)
	shift(result.NetWorth, cumulative)
}

func firstAtOrAfter(points []domain.Point, date time.Time) int {
	for i, pt := range points {
		if !pt.Date.Before(date) {
			return i
		}
	}
	return -1
}

func shift(points []domain.Point, deltas map[time.Time]decimal.Decimal) {
	for i, pt := range points {
		if d, ok := deltas[pt.Date]; ok {
			points[i].Value = pt.Value.Add(d)
		}
	}
}

func negate(deltas map[time.Time]decimal.Decimal) map[time.Time]decimal.Decimal {
	out := make(map[time.Time]decimal.Decimal, len(deltas))
	for k, v := range deltas {
		out[k] = v.Neg()
	}
	return out
}

func unsupported(sink domain.DiagnosticSink, index int, action domain.Action, err error) {
	event := domain.DiagnosticEvent{
		Level:   domain.DiagnosticWarning,
		Code:    domain.CodeDeferredUnsupported,
		Message: err.Error(),
		Fields: map[string]string{
			"action_index": fmt.Sprint(index),
			"action_type":  string(action.Type),
		},
	}
	if action.TargetID != nil {
		event.EntityID = *action.TargetID
	}
	if action.ActionDate != nil {
		event.Date = domain.MonthStart(*action.ActionDate)
	}
	sink.Emit(event)
}
