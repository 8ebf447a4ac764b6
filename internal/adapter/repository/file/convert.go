package file

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

type entityRef struct {
	kind domain.EntityType
	id   uuid.UUID
}

// converter turns a document into domain records. Records without an id get
// one derived from the portfolio id and their name, so ids stay stable across
// runs and edits of unrelated records.
type converter struct {
	portfolioID uuid.UUID
	refs        map[string]entityRef // by id string and by name
}

func newConverter(portfolioID uuid.UUID) *converter {
	return &converter{portfolioID: portfolioID, refs: map[string]entityRef{}}
}

func (c *converter) id(raw, kind, name string) (uuid.UUID, error) {
	if raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
		}
		return id, nil
	}
	return uuid.NewSHA1(c.portfolioID, []byte(kind+"/"+name)), nil
}

func (c *converter) register(kind domain.EntityType, id uuid.UUID, name string) {
	ref := entityRef{kind: kind, id: id}
	c.refs[id.String()] = ref
	if name != "" {
		c.refs[name] = ref
	}
}

func (c *converter) resolve(ref string) (entityRef, error) {
	if r, ok := c.refs[ref]; ok {
		return r, nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		if r, ok := c.refs[id.String()]; ok {
			return r, nil
		}
	}
	return entityRef{}, fmt.Errorf("unknown asset or loan %q", ref)
}

func parseDate(raw string) (time.Time, error) {
	return domain.ParseDate(raw)
}

func (c *converter) portfolio(doc *document) (*domain.Portfolio, error) {
	p := &domain.Portfolio{
		ID:       c.portfolioID,
		Name:     doc.Name,
		Version:  doc.Version,
		Currency: doc.Currency,
	}

	for i := range doc.Assets {
		a, err := c.asset(&doc.Assets[i])
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", doc.Assets[i].Name, err)
		}
		p.Assets = append(p.Assets, a)
	}
	for i := range doc.Loans {
		l, err := c.loan(&doc.Loans[i])
		if err != nil {
			return nil, fmt.Errorf("loan %q: %w", doc.Loans[i].Name, err)
		}
		p.Loans = append(p.Loans, l)
	}
	for i := range doc.RevenueStreams {
		s, err := c.stream(&doc.RevenueStreams[i], nil)
		if err != nil {
			return nil, fmt.Errorf("revenue stream %q: %w", doc.RevenueStreams[i].Name, err)
		}
		p.RevenueStreams = append(p.RevenueStreams, s)
	}
	for i := range doc.CashFlows {
		cf, err := c.cashFlow(&doc.CashFlows[i], "", nil)
		if err != nil {
			return nil, fmt.Errorf("cash flow %q: %w", doc.CashFlows[i].Name, err)
		}
		p.CashFlows = append(p.CashFlows, cf)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *converter) asset(d *assetDoc) (*domain.Asset, error) {
	id, err := c.id(d.ID, "asset", d.Name)
	if err != nil {
		return nil, err
	}
	start, err := parseDate(d.StartDate)
	if err != nil {
		return nil, err
	}
	a := &domain.Asset{
		ID:                    id,
		Name:                  d.Name,
		Type:                  domain.AssetType(d.Type),
		StartDate:             start,
		OriginalValue:         d.OriginalValue,
		CurrentValue:          d.CurrentValue,
		MonthlyPayment:        d.MonthlyPayment,
		SellTaxPct:            d.SellTax,
		ConversionCoefficient: d.ConversionCoefficient,
	}
	if a.AppreciationRateAnnualPct, err = domain.NormalizeRate(d.AppreciationRate); err != nil {
		return nil, err
	}
	if a.YearlyFeePct, err = domain.NormalizeRate(d.YearlyFee); err != nil {
		return nil, err
	}
	if a.SellDate, err = optionalDate(d.SellDate); err != nil {
		return nil, err
	}
	if a.EndDate, err = optionalDate(d.EndDate); err != nil {
		return nil, err
	}
	if a.ConversionDate, err = optionalDate(d.ConversionDate); err != nil {
		return nil, err
	}
	for _, h := range d.History {
		date, err := parseDate(h.Date)
		if err != nil {
			return nil, err
		}
		a.History = append(a.History, domain.ValuePoint{Date: date, Value: h.Value})
	}
	for i := range d.Deposits {
		e, err := c.cashFlow(&d.Deposits[i], domain.CashFlowDeposit, &a.ID)
		if err != nil {
			return nil, err
		}
		a.Deposits = append(a.Deposits, e)
	}
	for i := range d.Withdrawals {
		e, err := c.cashFlow(&d.Withdrawals[i], domain.CashFlowWithdrawal, &a.ID)
		if err != nil {
			return nil, err
		}
		a.Withdrawals = append(a.Withdrawals, e)
	}
	if d.RevenueStream != nil {
		if a.RevenueStream, err = c.stream(d.RevenueStream, &a.ID); err != nil {
			return nil, err
		}
	}

	c.register(domain.EntityTypeAsset, a.ID, a.Name)
	return a, nil
}

func (c *converter) loan(d *loanDoc) (*domain.Loan, error) {
	id, err := c.id(d.ID, "loan", d.Name)
	if err != nil {
		return nil, err
	}
	start, err := parseDate(d.StartDate)
	if err != nil {
		return nil, err
	}
	l := &domain.Loan{
		ID:                     id,
		Name:                   d.Name,
		Type:                   domain.LoanType(d.Type),
		StartDate:              start,
		OriginalValue:          d.OriginalValue,
		CurrentBalance:         d.CurrentBalance,
		DurationMonths:         d.DurationMonths,
		ExpectedCPIIncreasePct: d.ExpectedCPIIncrease,
	}
	if l.InterestRateAnnualPct, err = domain.NormalizeRate(d.InterestRate); err != nil {
		return nil, err
	}
	if l.MarginPct, err = domain.NormalizeRate(d.Margin); err != nil {
		return nil, err
	}
	if l.InflationRateAnnualPct, err = domain.NormalizeRate(d.InflationRate); err != nil {
		return nil, err
	}
	if l.RepaymentDate, err = optionalDate(d.RepaymentDate); err != nil {
		return nil, err
	}
	if d.Collateral != "" {
		ref, err := c.resolve(d.Collateral)
		if err != nil || ref.kind != domain.EntityTypeAsset {
			return nil, fmt.Errorf("unknown collateral asset %q", d.Collateral)
		}
		l.CollateralAssetID = &ref.id
	}

	c.register(domain.EntityTypeLoan, l.ID, l.Name)
	return l, nil
}

func (c *converter) stream(d *streamDoc, assetID *uuid.UUID) (*domain.RevenueStream, error) {
	scope := "stream"
	if assetID != nil {
		scope = "stream/" + assetID.String()
	}
	id, err := c.id(d.ID, scope, d.Name)
	if err != nil {
		return nil, err
	}
	start, err := parseDate(d.StartDate)
	if err != nil {
		return nil, err
	}
	s := &domain.RevenueStream{
		ID:              id,
		Name:            d.Name,
		Type:            domain.StreamType(d.Type),
		AssetID:         assetID,
		StartDate:       start,
		Amount:          d.Amount,
		Period:          domain.ParsePeriod(d.Period),
		DividendYield:   d.DividendYield,
		PayoutFrequency: domain.ParsePeriod(d.PayoutFrequency),
	}
	if d.Period == "" {
		s.Period = domain.PeriodMonthly
	}
	if d.PayoutFrequency == "" {
		s.PayoutFrequency = domain.PeriodYearly
	}
	if s.EndDate, err = optionalDate(d.EndDate); err != nil {
		return nil, err
	}
	if s.WithdrawStartDate, err = optionalDate(d.WithdrawStartDate); err != nil {
		return nil, err
	}
	if s.TaxRate, err = domain.NormalizeRate(d.TaxRate); err != nil {
		return nil, err
	}
	if s.GrowthRate, err = domain.NormalizeRate(d.GrowthRate); err != nil {
		return nil, err
	}
	return s, nil
}

// cashFlow converts an entry; kind overrides the document's kind when set
func (c *converter) cashFlow(d *cashFlowDoc, kind domain.CashFlowKind, target *uuid.UUID) (*domain.CashFlowEntry, error) {
	if kind == "" {
		kind = domain.CashFlowKind(d.Kind)
	}
	scope := "cashflow/" + string(kind)
	if target != nil {
		scope += "/" + target.String()
	}
	id, err := c.id(d.ID, scope, d.Name)
	if err != nil {
		return nil, err
	}
	from, err := parseDate(d.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(d.To)
	if err != nil {
		return nil, err
	}
	e := &domain.CashFlowEntry{
		ID:             id,
		Name:           d.Name,
		Kind:           kind,
		Amount:         d.Amount,
		From:           from,
		To:             to,
		FromOwnCapital: d.FromOwnCapital,
		TargetAssetID:  target,
	}
	return e, nil
}

func (c *converter) measurement(d *measurementDoc) (domain.Measurement, error) {
	ref, err := c.resolve(d.Entity)
	if err != nil {
		return domain.Measurement{}, err
	}
	date, err := parseDate(d.Date)
	if err != nil {
		return domain.Measurement{}, err
	}
	m := domain.Measurement{
		ID:          uuid.NewSHA1(ref.id, []byte(date.Format(time.DateOnly))),
		EntityType:  ref.kind,
		EntityID:    ref.id,
		Date:        date,
		ActualValue: d.Value,
		Notes:       d.Notes,
	}
	return m, m.Validate()
}

func (c *converter) scenario(d *scenarioDoc) (*domain.Scenario, error) {
	id, err := c.id(d.ID, "scenario", d.Name)
	if err != nil {
		return nil, err
	}
	s := &domain.Scenario{
		ID:          id,
		PortfolioID: c.portfolioID,
		Name:        d.Name,
		Description: d.Description,
	}
	for i := range d.Actions {
		a, err := c.action(id, &d.Actions[i])
		if err != nil {
			return nil, fmt.Errorf("scenario %q action %d: %w", d.Name, i+1, err)
		}
		s.Actions = append(s.Actions, a)
	}
	return s, nil
}

func (c *converter) action(scenarioID uuid.UUID, d *actionDoc) (domain.Action, error) {
	a := domain.Action{Type: domain.ActionType(d.Type), Amount: d.Amount}

	var err error
	if a.ActionDate, err = optionalDate(d.Date); err != nil {
		return a, err
	}
	if d.Target != "" {
		ref, err := c.resolve(d.Target)
		if err != nil {
			return a, err
		}
		a.TargetType = ref.kind
		a.TargetID = &ref.id
	}
	if d.Field != "" {
		a.Patch = &domain.Patch{Field: domain.UpdateField(d.Field), Value: d.Value}
	}
	for _, ch := range d.Changes {
		a.Changes = append(a.Changes, domain.Patch{Field: domain.UpdateField(ch.Field), Value: ch.Value})
	}

	switch a.Type {
	case domain.ActionNewAsset:
		if d.Asset == nil {
			return a, fmt.Errorf("%s needs an asset", a.Type)
		}
		if a.NewAsset, err = c.newAsset(scenarioID, d.Asset); err != nil {
			return a, err
		}
	case domain.ActionNewLoan:
		if d.Loan == nil {
			return a, fmt.Errorf("%s needs a loan", a.Type)
		}
		if a.NewLoan, err = c.newLoan(scenarioID, d.Loan); err != nil {
			return a, err
		}
	case domain.ActionAddRevenueStream:
		if d.Stream == nil {
			return a, fmt.Errorf("%s needs a stream", a.Type)
		}
		if a.NewStream, err = newStream(d.Stream); err != nil {
			return a, err
		}
	case domain.ActionMarketCrash:
		a.Crash = &domain.CrashParams{CrashPct: d.CrashPct, CrashDate: a.ActionDate}
		for _, t := range d.AssetTypes {
			a.Crash.AffectedAssetTypes = append(a.Crash.AffectedAssetTypes, domain.AssetType(t))
		}
	}
	return a, nil
}

// newAsset converts a scenario-created asset and registers its name so later
// actions of the scenario can target it
func (c *converter) newAsset(scenarioID uuid.UUID, d *assetDoc) (*domain.NewAssetParams, error) {
	id := uuid.NewSHA1(scenarioID, []byte("asset/"+d.Name))
	if d.ID != "" {
		var err error
		if id, err = uuid.Parse(d.ID); err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", d.ID, err)
		}
	}
	params := &domain.NewAssetParams{
		ID:                    &id,
		Name:                  d.Name,
		AssetType:             domain.AssetType(d.Type),
		OriginalValue:         d.OriginalValue,
		ConversionCoefficient: d.ConversionCoefficient,
		SellTaxPct:            d.SellTax,
	}
	var err error
	if params.StartDate, err = optionalDate(d.StartDate); err != nil {
		return nil, err
	}
	if params.EndDate, err = optionalDate(d.EndDate); err != nil {
		return nil, err
	}
	if params.ConversionDate, err = optionalDate(d.ConversionDate); err != nil {
		return nil, err
	}
	if params.SellDate, err = optionalDate(d.SellDate); err != nil {
		return nil, err
	}
	if params.AppreciationRateAnnualPct, err = domain.NormalizeRate(d.AppreciationRate); err != nil {
		return nil, err
	}
	if params.YearlyFeePct, err = domain.NormalizeRate(d.YearlyFee); err != nil {
		return nil, err
	}
	c.register(domain.EntityTypeAsset, id, d.Name)
	return params, nil
}

func (c *converter) newLoan(scenarioID uuid.UUID, d *loanDoc) (*domain.NewLoanParams, error) {
	id := uuid.NewSHA1(scenarioID, []byte("loan/"+d.Name))
	if d.ID != "" {
		var err error
		if id, err = uuid.Parse(d.ID); err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", d.ID, err)
		}
	}
	params := &domain.NewLoanParams{
		ID:             &id,
		Name:           d.Name,
		LoanType:       domain.LoanType(d.Type),
		OriginalValue:  d.OriginalValue,
		DurationMonths: d.DurationMonths,
	}
	var err error
	if params.StartDate, err = optionalDate(d.StartDate); err != nil {
		return nil, err
	}
	if params.InterestRateAnnualPct, err = domain.NormalizeRate(d.InterestRate); err != nil {
		return nil, err
	}
	if params.MarginPct, err = domain.NormalizeRate(d.Margin); err != nil {
		return nil, err
	}
	if params.InflationRateAnnualPct, err = domain.NormalizeRate(d.InflationRate); err != nil {
		return nil, err
	}
	c.register(domain.EntityTypeLoan, id, d.Name)
	return params, nil
}

func newStream(d *streamDoc) (*domain.NewStreamParams, error) {
	params := &domain.NewStreamParams{
		StreamType: domain.StreamType(d.Type),
		Name:       d.Name,
		Amount:     d.Amount,
	}
	if d.Period != "" {
		params.Period = domain.ParsePeriod(d.Period)
	}
	var err error
	if params.StartDate, err = optionalDate(d.StartDate); err != nil {
		return nil, err
	}
	if params.EndDate, err = optionalDate(d.EndDate); err != nil {
		return nil, err
	}
	if params.TaxRate, err = domain.NormalizeRate(d.TaxRate); err != nil {
		return nil, err
	}
	if params.GrowthRate, err = domain.NormalizeRate(d.GrowthRate); err != nil {
		return nil, err
	}
	return params, nil
}
