package projection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/pkg/id"
	"github.com/simaogato/wealthflow-planner/internal/usecase/scenario"
)

// ProjectionService loads a portfolio and its reference data, projects it and
// caches the outcome
type ProjectionService struct {
	PortfolioRepo   domain.PortfolioRepository
	MeasurementRepo domain.MeasurementRepository
	ScenarioRepo    domain.ScenarioRepository
	IndexRepo       domain.IndexRepository
	CacheRepo       domain.ProjectionCacheRepository // optional
	Sink            domain.DiagnosticSink            // optional, receives every diagnostic event

	engine    *Engine
	scenarios *scenario.Engine
	now       func() time.Time
}

// NewProjectionService creates a new ProjectionService instance.
// cacheRepo may be nil to disable caching.
func NewProjectionService(
	portfolioRepo domain.PortfolioRepository,
	measurementRepo domain.MeasurementRepository,
	scenarioRepo domain.ScenarioRepository,
	indexRepo domain.IndexRepository,
	cacheRepo domain.ProjectionCacheRepository,
) *ProjectionService {
	return &ProjectionService{
		PortfolioRepo:   portfolioRepo,
		MeasurementRepo: measurementRepo,
		ScenarioRepo:    scenarioRepo,
		IndexRepo:       indexRepo,
		CacheRepo:       cacheRepo,
		engine:          NewEngine(),
		scenarios:       scenario.NewEngine(),
		now:             time.Now,
	}
}

// Run projects the stored portfolio over the requested window.
// Logic:
//   - As-of mode replaces the start with the as-of date and ignores later measurements
//   - Results are cached per portfolio version and request window
//   - An empty portfolio yields an empty result
func (s *ProjectionService) Run(ctx context.Context, req domain.ProjectionRequest) (*domain.ProjectionResult, error) {
	// 1. Validate the window before touching any repository
	w, err := req.Window()
	if err != nil {
		return nil, err
	}

	// 2. Load the portfolio and check the cache
	portfolio, err := s.PortfolioRepo.GetByID(ctx, req.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	key := CacheKey(portfolio.Version, req)
	sink := &domain.RecordingSink{}
	if cached := s.cached(ctx, req.PortfolioID, key, sink); cached != nil {
		return cached, nil
	}

	if portfolio.IsEmpty() {
		return s.stamp(emptyResult(w), req), nil
	}

	// 3. Load measurements and index data
	measurements, err := s.measurements(ctx, req)
	if err != nil {
		return nil, err
	}
	index, err := s.IndexRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load index data: %w", err)
	}

	// 4. Project and store
	result, err := s.engine.Project(portfolio, measurements, index, w, s.tee(sink))
	if err != nil {
		return nil, err
	}
	result = s.stamp(result, req)
	s.store(ctx, req.PortfolioID, key, result, sink)
	result.Diagnostics = sink.Events
	return result, nil
}

// RunScenario projects a stored scenario: its immediate actions are applied
// to a copy of the portfolio before projecting, its deferred actions to the
// projected result. Scenario runs are never cached.
func (s *ProjectionService) RunScenario(ctx context.Context, scenarioID uuid.UUID, req domain.ProjectionRequest) (*domain.ProjectionResult, error) {
	w, err := req.Window()
	if err != nil {
		return nil, err
	}

	sc, err := s.ScenarioRepo.GetByID(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	if req.PortfolioID == uuid.Nil {
		req.PortfolioID = sc.PortfolioID
	}
	if req.PortfolioID != sc.PortfolioID {
		return nil, fmt.Errorf("scenario %s belongs to another portfolio: %w", scenarioID, domain.ErrNotFound)
	}

	portfolio, err := s.PortfolioRepo.GetByID(ctx, req.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if portfolio.IsEmpty() {
		return s.stamp(emptyResult(w), req), nil
	}

	measurements, err := s.measurements(ctx, req)
	if err != nil {
		return nil, err
	}
	index, err := s.IndexRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load index data: %w", err)
	}

	sink := &domain.RecordingSink{}
	modified, deferred := s.scenarios.Apply(portfolio, sc.Actions, w, s.tee(sink))
	result, err := s.engine.Project(modified, measurements, index, w, s.tee(sink))
	if err != nil {
		return nil, fmt.Errorf("scenario projection failed: %w", err)
	}
	s.scenarios.ApplyDeferred(result, modified, deferred, s.tee(sink))

	result = s.stamp(result, req)
	result.Diagnostics = sink.Events
	return result, nil
}

// CacheKey identifies a projection of one portfolio version over one request window
func CacheKey(version int, req domain.ProjectionRequest) string {
	asOf := "none"
	if req.AsOfDate != nil {
		asOf = req.AsOfDate.Format(time.DateOnly)
	}
	raw := fmt.Sprintf("%d:%s:%s:%s", version, req.StartDate.Format(time.DateOnly), req.EndDate.Format(time.DateOnly), asOf)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *ProjectionService) measurements(ctx context.Context, req domain.ProjectionRequest) ([]domain.Measurement, error) {
	all, err := s.MeasurementRepo.ListByPortfolio(ctx, req.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load measurements: %w", err)
	}
	if req.AsOfDate == nil {
		return all, nil
	}
	var kept []domain.Measurement
	for _, m := range all {
		if !m.Date.After(*req.AsOfDate) {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// cached returns a cache hit, or nil. Cache failures degrade to a miss.
func (s *ProjectionService) cached(ctx context.Context, portfolioID uuid.UUID, key string, sink domain.DiagnosticSink) *domain.ProjectionResult {
	if s.CacheRepo == nil {
		return nil
	}
	result, err := s.CacheRepo.Get(ctx, portfolioID, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.tee(sink).Emit(cacheEvent(portfolioID, "read", err))
		}
		return nil
	}
	return result
}

func (s *ProjectionService) store(ctx context.Context, portfolioID uuid.UUID, key string, result *domain.ProjectionResult, sink domain.DiagnosticSink) {
	if s.CacheRepo == nil {
		return
	}
	if err := s.CacheRepo.Put(ctx, portfolioID, key, result); err != nil {
		s.tee(sink).Emit(cacheEvent(portfolioID, "write", err))
	}
}

func (s *ProjectionService) stamp(result *domain.ProjectionResult, req domain.ProjectionRequest) *domain.ProjectionResult {
	now := s.now().UTC()
	result.RunID = id.At(now)
	result.ComputedAt = now
	result.PortfolioID = req.PortfolioID
	result.IsHistorical = req.IsHistorical()
	result.AsOfDate = req.AsOfDate
	return result
}

// tee forwards events to the recording sink and to the service sink, if any
func (s *ProjectionService) tee(rec domain.DiagnosticSink) domain.DiagnosticSink {
	if s.Sink == nil {
		return rec
	}
	return teeSink{rec, s.Sink}
}

type teeSink []domain.DiagnosticSink

func (t teeSink) Emit(event domain.DiagnosticEvent) {
	for _, sink := range t {
		sink.Emit(event)
	}
}

func cacheEvent(portfolioID uuid.UUID, op string, err error) domain.DiagnosticEvent {
	return domain.DiagnosticEvent{
		Level:    domain.DiagnosticWarning,
		Code:     domain.CodeCacheUnavailable,
		EntityID: portfolioID,
		Message:  fmt.Sprintf("projection cache %s failed: %v", op, err),
	}
}

func emptyResult(w domain.Window) *domain.ProjectionResult {
	return &domain.ProjectionResult{StartDate: w.Start, EndDate: w.End}
}
