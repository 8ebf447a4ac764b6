// Package scenario applies declarative what-if actions to a copy of a
// portfolio, and later to the projection computed from it.
package scenario

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

const (
	defaultAssetName  = "Scenario Asset"
	defaultLoanName   = "Scenario Loan"
	defaultStreamName = "Scenario Stream"
)

// Engine applies scenario actions. It holds no per-request state.
type Engine struct {
	newID func() uuid.UUID
}

// NewEngine creates a scenario engine that mints random ids for created instruments
func NewEngine() *Engine {
	return &Engine{newID: uuid.New}
}

// Apply deep-copies base and applies every immediate action in order. Actions
// that only make sense against computed series (a dated param_change, a market
// crash) are returned as deferred, in their original order. An action that is
// missing required fields or names an unknown target is skipped and reported
// through sink; base is never mutated.
func (e *Engine) Apply(base *domain.Portfolio, actions []domain.Action, window domain.Window, sink domain.DiagnosticSink) (*domain.Portfolio, []domain.Action) {
	sink = domain.SinkOrNop(sink)
	p := base.Clone()

	var deferred []domain.Action
	for i, action := range actions {
		if action.IsDeferred() {
			deferred = append(deferred, action)
			continue
		}
		if err := e.apply(p, action, window); err != nil {
			skipped(sink, i, action, err)
		}
	}
	return p, deferred
}

func (e *Engine) apply(p *domain.Portfolio, action domain.Action, window domain.Window) error {
	switch action.Type {
	case domain.ActionParamChange:
		return applyPatches(p, action.TargetType, action.TargetID, patchList(action.Patch))
	case domain.ActionTransformAsset:
		return applyPatches(p, domain.EntityTypeAsset, action.TargetID, action.Changes)
	case domain.ActionNewAsset:
		return e.newAsset(p, action.NewAsset, window)
	case domain.ActionNewLoan:
		return e.newLoan(p, action.NewLoan, window)
	case domain.ActionRepayLoan:
		return repayLoan(p, action)
	case domain.ActionDepositToAsset, domain.ActionWithdrawFromAsset:
		return e.addEntry(p, action)
	case domain.ActionAddRevenueStream:
		return e.addStream(p, action, window)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

func patchList(p *domain.Patch) []domain.Patch {
	if p == nil {
		return nil
	}
	return []domain.Patch{*p}
}

// applyPatches sets every patch on a scratch copy first so a bad field leaves
// the target untouched
func applyPatches(p *domain.Portfolio, target domain.EntityType, id *uuid.UUID, patches []domain.Patch) error {
	if id == nil || len(patches) == 0 {
		return errMissing("target and changes")
	}
	switch target {
	case domain.EntityTypeAsset:
		a := p.FindAsset(*id)
		if a == nil {
			return fmt.Errorf("asset %s: %w", id, domain.ErrNotFound)
		}
		draft := a.Clone()
		for _, patch := range patches {
			if err := patch.ApplyToAsset(draft); err != nil {
				return err
			}
		}
		*a = *draft
	case domain.EntityTypeLoan:
		l := p.FindLoan(*id)
		if l == nil {
			return fmt.Errorf("loan %s: %w", id, domain.ErrNotFound)
		}
		draft := l.Clone()
		for _, patch := range patches {
			if err := patch.ApplyToLoan(draft); err != nil {
				return err
			}
		}
		*l = *draft
	default:
		return fmt.Errorf("unknown target type %q", target)
	}
	return nil
}

func (e *Engine) newAsset(p *domain.Portfolio, params *domain.NewAssetParams, window domain.Window) error {
	if params == nil {
		return errMissing("asset params")
	}
	a := &domain.Asset{
		ID:                        e.idOr(params.ID),
		Name:                      params.Name,
		Type:                      params.AssetType,
		StartDate:                 dateOr(params.StartDate, window.Start),
		OriginalValue:             params.OriginalValue,
		AppreciationRateAnnualPct: params.AppreciationRateAnnualPct,
		YearlyFeePct:              params.YearlyFeePct,
		SellDate:                  params.SellDate,
		SellTaxPct:                params.SellTaxPct,
		EndDate:                   params.EndDate,
		ConversionDate:            params.ConversionDate,
		ConversionCoefficient:     params.ConversionCoefficient,
	}
	if a.Name == "" {
		a.Name = defaultAssetName
	}
	if a.Type == "" {
		a.Type = domain.AssetTypeStock
	}
	if err := a.Validate(); err != nil {
		return err
	}
	p.Assets = append(p.Assets, a)
	return nil
}

func (e *Engine) newLoan(p *domain.Portfolio, params *domain.NewLoanParams, window domain.Window) error {
	if params == nil {
		return errMissing("loan params")
	}
	l := &domain.Loan{
		ID:                     e.idOr(params.ID),
		Name:                   params.Name,
		Type:                   params.LoanType,
		StartDate:              dateOr(params.StartDate, window.Start),
		OriginalValue:          params.OriginalValue,
		InterestRateAnnualPct:  params.InterestRateAnnualPct,
		DurationMonths:         params.DurationMonths,
		MarginPct:              params.MarginPct,
		InflationRateAnnualPct: params.InflationRateAnnualPct,
	}
	if l.Name == "" {
		l.Name = defaultLoanName
	}
	// pegged types need index calendars a scenario cannot supply
	if l.Type != domain.LoanTypeVariable {
		l.Type = domain.LoanTypeFixed
	}
	if l.DurationMonths <= 0 {
		l.DurationMonths = domain.DefaultLoanDurationMonths
	}
	if err := l.Validate(); err != nil {
		return err
	}
	p.Loans = append(p.Loans, l)
	return nil
}

// repayLoan shortens the loan to end at the repayment month. A repayment at
// or before the loan start leaves the loan unchanged.
func repayLoan(p *domain.Portfolio, action domain.Action) error {
	if action.TargetID == nil || action.ActionDate == nil {
		return errMissing("target and action date")
	}
	l := p.FindLoan(*action.TargetID)
	if l == nil {
		return fmt.Errorf("loan %s: %w", action.TargetID, domain.ErrNotFound)
	}
	if months := domain.MonthsBetween(l.StartDate, *action.ActionDate); months > 0 {
		l.DurationMonths = months
	}
	return nil
}

// addEntry injects a single-month own-capital deposit or withdrawal
func (e *Engine) addEntry(p *domain.Portfolio, action domain.Action) error {
	if action.TargetID == nil || action.Amount == nil || action.ActionDate == nil {
		return errMissing("target, amount and action date")
	}
	a := p.FindAsset(*action.TargetID)
	if a == nil {
		return fmt.Errorf("asset %s: %w", action.TargetID, domain.ErrNotFound)
	}
	month := domain.MonthStart(*action.ActionDate)
	target := a.ID
	entry := &domain.CashFlowEntry{
		ID:             e.newID(),
		Name:           string(action.Type),
		Kind:           domain.CashFlowDeposit,
		Amount:         *action.Amount,
		From:           month,
		To:             month,
		FromOwnCapital: true,
		TargetAssetID:  &target,
	}
	if action.Type == domain.ActionWithdrawFromAsset {
		entry.Kind = domain.CashFlowWithdrawal
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.Kind == domain.CashFlowDeposit {
		a.Deposits = append(a.Deposits, entry)
	} else {
		a.Withdrawals = append(a.Withdrawals, entry)
	}
	return nil
}

// addStream attaches a new rent, salary or pension stream to the target asset,
// or to the first asset when no target is given
func (e *Engine) addStream(p *domain.Portfolio, action domain.Action, window domain.Window) error {
	params := action.NewStream
	if params == nil {
		return errMissing("stream params")
	}

	var a *domain.Asset
	switch {
	case action.TargetID != nil:
		a = p.FindAsset(*action.TargetID)
		if a == nil {
			return fmt.Errorf("asset %s: %w", action.TargetID, domain.ErrNotFound)
		}
	case len(p.Assets) > 0:
		a = p.Assets[0]
	default:
		return fmt.Errorf("no asset to attach the stream to: %w", domain.ErrNotFound)
	}

	owner := a.ID
	s := &domain.RevenueStream{
		ID:         e.newID(),
		Name:       params.Name,
		Type:       params.StreamType,
		AssetID:    &owner,
		StartDate:  dateOr(params.StartDate, window.Start),
		EndDate:    params.EndDate,
		Amount:     params.Amount,
		Period:     params.Period,
		TaxRate:    params.TaxRate,
		GrowthRate: params.GrowthRate,
	}
	if s.Name == "" {
		s.Name = defaultStreamName
	}

	switch s.Type {
	case domain.StreamTypeRent:
		if s.Period == "" {
			s.Period = domain.PeriodMonthly
		}
	case domain.StreamTypeSalary:
		if s.EndDate == nil {
			end := domain.DefaultSalaryEndDate
			s.EndDate = &end
		}
	case domain.StreamTypePension:
	default:
		return fmt.Errorf("stream type %q: %w", s.Type, domain.ErrUnsupported)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	a.RevenueStream = s
	return nil
}

func (e *Engine) idOr(id *uuid.UUID) uuid.UUID {
	if id != nil && *id != uuid.Nil {
		return *id
	}
	return e.newID()
}

func dateOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}
	return domain.MonthStart(*t)
}

func errMissing(what string) error {
	return fmt.Errorf("missing %s", what)
}

func skipped(sink domain.DiagnosticSink, index int, action domain.Action, err error) {
	event := domain.DiagnosticEvent{
		Level:   domain.DiagnosticWarning,
		Code:    domain.CodeActionSkipped,
		Message: err.Error(),
		Fields: map[string]string{
			"action_index": fmt.Sprint(index),
			"action_type":  string(action.Type),
		},
	}
	if action.TargetID != nil {
		event.EntityID = *action.TargetID
	}
	sink.Emit(event)
}
