package aggregator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

type flowPick func(r domain.Row) decimal.Decimal

// assetFlow describes one breakdown item extracted from an asset's rows
type assetFlow struct {
	suffix    string
	direction domain.FlowDirection
	category  domain.FlowCategory
	pick      flowPick
}

var assetFlows = []assetFlow{
	{suffix: "Own Capital", direction: domain.FlowExpense, category: domain.CategoryDeposit, pick: func(r domain.Row) decimal.Decimal { return r.Flows.OwnCapitalDeposit }},
	{suffix: "Withdrawal", direction: domain.FlowIncome, category: domain.CategoryWithdrawal, pick: func(r domain.Row) decimal.Decimal { return r.Flows.Withdrawal }},
	{suffix: "Dividend", direction: domain.FlowIncome, category: domain.CategoryDividend, pick: func(r domain.Row) decimal.Decimal { return r.Flows.Dividend }},
	{suffix: "Pension", direction: domain.FlowIncome, category: domain.CategoryPension, pick: func(r domain.Row) decimal.Decimal { return r.Flows.PensionPayout }},
}

// externalFlow only reaches the household's cash flow for cash assets; other
// assets absorb external deposits into their value
var externalFlow = assetFlow{
	suffix:    "External Deposit",
	direction: domain.FlowIncome,
	category:  domain.CategoryExternalDeposit,
	pick:      func(r domain.Row) decimal.Decimal { return r.Flows.ExternalDeposit },
}

func buildBreakdown(axis []time.Time, assets []AssetResult, loans []LoanResult, streams []StreamResult, cashFlows []*domain.CashFlowEntry) domain.CashFlowBreakdown {
	var items []domain.CashFlowItem

	for _, l := range loans {
		if l.Series.IsEmpty() {
			continue
		}
		id := l.Loan.ID
		items = append(items, domain.CashFlowItem{
			SourceName: l.Loan.Name,
			Direction:  domain.FlowExpense,
			Category:   domain.CategoryLoanPayment,
			Series:     align(axis, l.Series, func(r domain.Row) decimal.Decimal { return r.CashFlow.Abs() }),
			EntityID:   &id,
			EntityType: domain.EntityTypeLoan,
		})
	}

	for _, a := range assets {
		flows := assetFlows
		if a.Asset.Type == domain.AssetTypeCash {
			flows = append(append([]assetFlow(nil), assetFlows...), externalFlow)
		}
		for _, f := range flows {
			series := align(axis, a.Series, f.pick)
			if allZero(series) {
				continue
			}
			items = append(items, assetItem(a.Asset, fmt.Sprintf("%s - %s", a.Asset.Name, f.suffix), f.direction, f.category, series))
		}
		if s := a.Asset.RevenueStream; s != nil {
			series := align(axis, a.Series, func(r domain.Row) decimal.Decimal { return r.Flows.Revenue })
			if !allZero(series) {
				category := streamCategory(s.Type)
				items = append(items, assetItem(a.Asset, fmt.Sprintf("%s - %s", a.Asset.Name, title(category)), domain.FlowIncome, category, series))
			}
		}
	}

	for _, s := range streams {
		if s.Series.IsEmpty() {
			continue
		}
		items = append(items, domain.CashFlowItem{
			SourceName: s.Stream.Name,
			Direction:  domain.FlowIncome,
			Category:   streamCategory(s.Stream.Type),
			Series:     align(axis, s.Series, func(r domain.Row) decimal.Decimal { return r.CashFlow }),
		})
	}

	for _, c := range cashFlows {
		items = append(items, standaloneItem(axis, c))
	}

	return totals(axis, items)
}

func assetItem(a *domain.Asset, name string, dir domain.FlowDirection, cat domain.FlowCategory, series []domain.Point) domain.CashFlowItem {
	id := a.ID
	return domain.CashFlowItem{
		SourceName: name,
		Direction:  dir,
		Category:   cat,
		Series:     series,
		EntityID:   &id,
		EntityType: domain.EntityTypeAsset,
	}
}

// standaloneItem classifies a household cash flow: own-capital deposits and
// withdrawals leave the household, external deposits come in
func standaloneItem(axis []time.Time, c *domain.CashFlowEntry) domain.CashFlowItem {
	item := domain.CashFlowItem{SourceName: c.Name}
	switch {
	case c.Kind == domain.CashFlowDeposit && !c.FromOwnCapital:
		item.Direction, item.Category = domain.FlowIncome, domain.CategoryExternalDeposit
	case c.Kind == domain.CashFlowDeposit:
		item.Direction, item.Category = domain.FlowExpense, domain.CategoryDeposit
	default:
		item.Direction, item.Category = domain.FlowExpense, domain.CategoryWithdrawal
	}
	from, to := domain.MonthStart(c.From), domain.MonthStart(c.To)
	item.Series = make([]domain.Point, len(axis))
	for i, d := range axis {
		v := decimal.Zero
		if !d.Before(from) && !d.After(to) {
			v = finmath.Money(c.Amount)
		}
		item.Series[i] = domain.Point{Date: d, Value: v}
	}
	return item
}

func totals(axis []time.Time, items []domain.CashFlowItem) domain.CashFlowBreakdown {
	income := make([]decimal.Decimal, len(axis))
	expense := make([]decimal.Decimal, len(axis))
	for _, item := range items {
		for i, pt := range item.Series {
			if item.Direction == domain.FlowIncome {
				income[i] = income[i].Add(pt.Value)
			} else {
				expense[i] = expense[i].Add(pt.Value)
			}
		}
	}

	b := domain.CashFlowBreakdown{Items: items}
	for i, d := range axis {
		b.TotalIncome = append(b.TotalIncome, domain.Point{Date: d, Value: income[i]})
		b.TotalExpense = append(b.TotalExpense, domain.Point{Date: d, Value: expense[i]})
		b.Net = append(b.Net, domain.Point{Date: d, Value: income[i].Sub(expense[i])})
	}
	return b
}

// align maps a series onto the axis, with zero for months the series lacks
func align(axis []time.Time, s domain.Series, pick flowPick) []domain.Point {
	rows := s.ByDate()
	out := make([]domain.Point, len(axis))
	for i, d := range axis {
		v := decimal.Zero
		if r, ok := rows[d]; ok {
			v = finmath.Money(pick(r))
		}
		out[i] = domain.Point{Date: d, Value: v}
	}
	return out
}

func allZero(pts []domain.Point) bool {
	for _, p := range pts {
		if !p.Value.IsZero() {
			return false
		}
	}
	return true
}

func streamCategory(t domain.StreamType) domain.FlowCategory {
	switch t {
	case domain.StreamTypeSalary:
		return domain.CategorySalary
	case domain.StreamTypePension:
		return domain.CategoryPension
	case domain.StreamTypeDividend:
		return domain.CategoryDividend
	default:
		return domain.CategoryRent
	}
}

func title(c domain.FlowCategory) string {
	switch c {
	case domain.CategorySalary:
		return "Salary"
	case domain.CategoryPension:
		return "Pension"
	case domain.CategoryDividend:
		return "Dividend"
	default:
		return "Rent"
	}
}
