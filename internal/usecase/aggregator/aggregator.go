// Package aggregator combines per-instrument series into portfolio totals,
// corrects them with historical measurements and attributes monthly cash flow
// to its sources.
package aggregator

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// AccumulatedCashName labels the virtual asset holding the running net cash flow
const AccumulatedCashName = "Accumulated Cash"

// AssetResult is one projected asset
type AssetResult struct {
	Asset  *domain.Asset
	Series domain.Series
}

// LoanResult is one projected loan
type LoanResult struct {
	Loan   *domain.Loan
	Series domain.Series
}

// StreamResult is one projected standalone revenue stream
type StreamResult struct {
	Stream *domain.RevenueStream
	Series domain.Series
}

// Input is everything the aggregator combines for one window
type Input struct {
	Window       domain.Window
	Assets       []AssetResult
	Loans        []LoanResult
	Streams      []StreamResult
	CashFlows    []*domain.CashFlowEntry // standalone
	Measurements []domain.Measurement
}

// Aggregate builds the portfolio-level result. Cash conversions and
// measurement corrections run on the full instrument series, so a measurement
// dated before the window shifts from its own month; the corrected series are
// then clipped to the window. The caller owns the input series and they are
// not modified.
func Aggregate(in Input) *domain.ProjectionResult {
	assets := append([]AssetResult(nil), in.Assets...)
	loans := append([]LoanResult(nil), in.Loans...)

	applyCashConversions(assets, in.Assets, in.Window)
	markers := applyMeasurements(assets, loans, in.Measurements)

	for i := range assets {
		assets[i].Series = assets[i].Series.Window(in.Window.Start, in.Window.End)
	}
	for i := range loans {
		loans[i].Series = loans[i].Series.Window(in.Window.Start, in.Window.End)
	}

	axis := unifiedAxis(in.Window, assets, loans)
	result := &domain.ProjectionResult{
		StartDate: in.Window.Start,
		EndDate:   in.Window.End,
		Markers:   markers,
	}

	totalAssets := make(map[time.Time]decimal.Decimal, len(axis))
	for _, a := range assets {
		proj := domain.AssetProjection{
			AssetID:      a.Asset.ID,
			Name:         a.Asset.Name,
			Type:         a.Asset.Type,
			Series:       toPoints(a.Series, func(r domain.Row) decimal.Decimal { return r.Value }),
			Measurements: markersFor(markers, domain.EntityTypeAsset, a.Asset.ID),
		}
		for _, r := range a.Series.Rows {
			totalAssets[r.Date] = totalAssets[r.Date].Add(r.Value)
		}
		result.Assets = append(result.Assets, proj)
	}

	totalLoans := make(map[time.Time]decimal.Decimal, len(axis))
	for _, l := range loans {
		proj := domain.LoanProjection{
			LoanID:       l.Loan.ID,
			Name:         l.Loan.Name,
			Type:         l.Loan.Type,
			Balance:      toPoints(l.Series, func(r domain.Row) decimal.Decimal { return r.Value.Abs() }),
			Payments:     toPoints(l.Series, func(r domain.Row) decimal.Decimal { return r.CashFlow.Abs() }),
			Measurements: markersFor(markers, domain.EntityTypeLoan, l.Loan.ID),
		}
		for _, r := range l.Series.Rows {
			totalLoans[r.Date] = totalLoans[r.Date].Add(r.Value)
		}
		result.Loans = append(result.Loans, proj)
	}

	result.Breakdown = buildBreakdown(axis, assets, loans, in.Streams, in.CashFlows)
	result.NetCashFlow = clonePoints(result.Breakdown.Net)

	accumulated := make([]domain.Point, len(axis))
	running := decimal.Zero
	for i, pt := range result.Breakdown.Net {
		running = running.Add(pt.Value)
		accumulated[i] = domain.Point{Date: pt.Date, Value: finmath.Money(running)}
	}
	result.Assets = append(result.Assets, domain.AssetProjection{
		AssetID: uuid.Nil,
		Name:    AccumulatedCashName,
		Type:    domain.AssetTypeCash,
		Virtual: true,
		Series:  accumulated,
	})

	for i, date := range axis {
		assetsValue := finmath.Money(totalAssets[date].Add(accumulated[i].Value))
		liabilities := finmath.Money(totalLoans[date].Abs())
		result.TotalAssets = append(result.TotalAssets, domain.Point{Date: date, Value: assetsValue})
		result.TotalLiabilities = append(result.TotalLiabilities, domain.Point{Date: date, Value: liabilities})
		result.NetWorth = append(result.NetWorth, domain.Point{Date: date, Value: assetsValue.Sub(liabilities)})
	}
	return result
}

// unifiedAxis is the sorted union of every instrument date, or the window's
// months when no instrument has rows in it
func unifiedAxis(w domain.Window, assets []AssetResult, loans []LoanResult) []time.Time {
	seen := make(map[time.Time]bool)
	for _, a := range assets {
		for _, r := range a.Series.Rows {
			seen[r.Date] = true
		}
	}
	for _, l := range loans {
		for _, r := range l.Series.Rows {
			seen[r.Date] = true
		}
	}
	if len(seen) == 0 {
		return w.Dates()
	}
	axis := make([]time.Time, 0, len(seen))
	for d := range seen {
		axis = append(axis, d)
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })
	return axis
}

func toPoints(s domain.Series, value func(domain.Row) decimal.Decimal) []domain.Point {
	out := make([]domain.Point, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = domain.Point{Date: r.Date, Value: finmath.Money(value(r))}
	}
	return out
}

func clonePoints(pts []domain.Point) []domain.Point {
	return append([]domain.Point(nil), pts...)
}
