// Package projection runs a portfolio through the instrument projectors and
// the aggregator, with caching, historical mode and scenarios on top.
package projection

import (
	"errors"
	"fmt"

	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/aggregator"
	"github.com/simaogato/wealthflow-planner/internal/usecase/asset"
	"github.com/simaogato/wealthflow-planner/internal/usecase/indextracker"
	"github.com/simaogato/wealthflow-planner/internal/usecase/loan"
	"github.com/simaogato/wealthflow-planner/internal/usecase/revenue"
)

// Engine is the pure projection pipeline. It performs no I/O and keeps no
// state between calls.
type Engine struct{}

// NewEngine creates a projection engine
func NewEngine() *Engine {
	return &Engine{}
}

// Project computes every instrument from its own start far enough to reach
// the window end, then aggregates the window. Any projector failure fails the
// whole run.
func (e *Engine) Project(p *domain.Portfolio, measurements []domain.Measurement, index domain.IndexData, w domain.Window, sink domain.DiagnosticSink) (*domain.ProjectionResult, error) {
	sink = domain.SinkOrNop(sink)
	tracker := indextracker.NewTracker(index)
	in := aggregator.Input{
		Window:       w,
		CashFlows:    p.CashFlows,
		Measurements: measurements,
	}

	for _, a := range p.Assets {
		series := domain.Series{EntityID: a.ID}
		if horizon := domain.MonthsBetween(a.StartDate, w.End); horizon > 0 {
			projector, err := asset.NewProjector(a, sink)
			if err != nil {
				return nil, fmt.Errorf("failed to project asset %q: %w", a.Name, err)
			}
			if series, err = projector.Project(horizon); err != nil {
				return nil, fmt.Errorf("failed to project asset %q: %w", a.Name, err)
			}
		}
		in.Assets = append(in.Assets, aggregator.AssetResult{Asset: a, Series: series})
	}

	for _, l := range p.Loans {
		series := domain.Series{EntityID: l.ID}
		if horizon := domain.MonthsBetween(l.StartDate, w.End); horizon > 0 {
			projector, err := loan.NewProjector(l, tracker, sink)
			if err != nil {
				return nil, fmt.Errorf("failed to project loan %q: %w", l.Name, err)
			}
			if series, err = projector.Project(horizon); err != nil {
				return nil, fmt.Errorf("failed to project loan %q: %w", l.Name, err)
			}
		}
		in.Loans = append(in.Loans, aggregator.LoanResult{Loan: l, Series: series})
	}

	for _, s := range p.RevenueStreams {
		horizon := domain.MonthsBetween(s.StartDate, w.End)
		if horizon <= 0 {
			continue
		}
		gen, err := revenue.NewGenerator(s, sink)
		if errors.Is(err, domain.ErrUnsupported) {
			// pension and dividend terms only exist on an asset
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to project revenue stream %q: %w", s.Name, err)
		}
		series, err := gen.CashFlow(horizon)
		if err != nil {
			return nil, fmt.Errorf("failed to project revenue stream %q: %w", s.Name, err)
		}
		in.Streams = append(in.Streams, aggregator.StreamResult{Stream: s, Series: series})
	}

	return aggregator.Aggregate(in), nil
}
