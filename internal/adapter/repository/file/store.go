// Package file loads a portfolio, its measurements and scenarios from a
// single YAML document and serves them through the domain repositories.
package file

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"gopkg.in/yaml.v3"
)

// portfolioNamespace scopes ids minted for portfolios that do not declare one
var portfolioNamespace = uuid.MustParse("5b0c1d0e-8f2a-4c36-9a5e-0f6e3c1b7d42")

// Store is an in-memory view of one portfolio document
type Store struct {
	mu           sync.RWMutex
	portfolio    *domain.Portfolio
	scenarios    []*domain.Scenario
	measurements []domain.Measurement

	primePath string
	cpiPath   string
}

// Load reads and converts the document at path.
// Records that omit an id receive a stable one derived from their name. When
// the document carries no version, a checksum of its contents is used so that
// any edit yields a new version.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file: %w", err)
	}
	store, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	store.primePath = resolvePath(dir, store.primePath)
	store.cpiPath = resolvePath(dir, store.cpiPath)
	return store, nil
}

// Parse converts a document held in memory. Relative index paths are kept as written.
func Parse(data []byte) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio document: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = int(crc32.ChecksumIEEE(data) & 0x7fffffff)
	}

	portfolioID := uuid.NewSHA1(portfolioNamespace, []byte(doc.Name))
	if doc.ID != "" {
		var err error
		if portfolioID, err = uuid.Parse(doc.ID); err != nil {
			return nil, fmt.Errorf("invalid portfolio id %q: %w", doc.ID, err)
		}
	}

	conv := newConverter(portfolioID)
	p, err := conv.portfolio(&doc)
	if err != nil {
		return nil, err
	}

	store := &Store{portfolio: p}
	for i := range doc.Measurements {
		m, err := conv.measurement(&doc.Measurements[i])
		if err != nil {
			return nil, fmt.Errorf("measurement %d: %w", i+1, err)
		}
		store.measurements = append(store.measurements, m)
	}
	sortMeasurements(store.measurements)

	for i := range doc.Scenarios {
		s, err := conv.scenario(&doc.Scenarios[i])
		if err != nil {
			return nil, err
		}
		store.scenarios = append(store.scenarios, s)
	}

	if doc.Index != nil {
		store.primePath = doc.Index.Prime
		store.cpiPath = doc.Index.CPI
	}
	return store, nil
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func sortMeasurements(ms []domain.Measurement) {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Date.Before(ms[j].Date) })
}

// PortfolioID returns the id of the loaded portfolio
func (s *Store) PortfolioID() uuid.UUID {
	return s.portfolio.ID
}

// IndexPaths returns the prime and CPI table paths named by the document, if any
func (s *Store) IndexPaths() (prime, cpi string) {
	return s.primePath, s.cpiPath
}

// Scenarios returns the document's scenarios in declaration order
func (s *Store) Scenarios() []*domain.Scenario {
	return s.scenarios
}

// FindScenario looks a scenario up by id or name
func (s *Store) FindScenario(ref string) (*domain.Scenario, error) {
	for _, sc := range s.scenarios {
		if sc.Name == ref || sc.ID.String() == ref {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("scenario %q: %w", ref, domain.ErrNotFound)
}

// Portfolios returns the store as a PortfolioRepository
func (s *Store) Portfolios() domain.PortfolioRepository { return portfolioView{s} }

// ScenarioRepository returns the store as a ScenarioRepository
func (s *Store) ScenarioRepository() domain.ScenarioRepository { return scenarioView{s} }

// Measurements returns the store as a MeasurementRepository. Added
// measurements live in memory only.
func (s *Store) Measurements() domain.MeasurementRepository { return measurementView{s} }

type portfolioView struct{ s *Store }

func (v portfolioView) GetByID(_ context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	if id != v.s.portfolio.ID {
		return nil, domain.ErrNotFound
	}
	return v.s.portfolio.Clone(), nil
}

type scenarioView struct{ s *Store }

func (v scenarioView) GetByID(_ context.Context, id uuid.UUID) (*domain.Scenario, error) {
	for _, sc := range v.s.scenarios {
		if sc.ID == id {
			return sc, nil
		}
	}
	return nil, domain.ErrNotFound
}

type measurementView struct{ s *Store }

func (v measurementView) Add(_ context.Context, m *domain.Measurement) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.measurements = append(v.s.measurements, *m)
	sortMeasurements(v.s.measurements)
	return nil
}

func (v measurementView) ListByPortfolio(_ context.Context, portfolioID uuid.UUID) ([]domain.Measurement, error) {
	if portfolioID != v.s.portfolio.ID {
		return nil, nil
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]domain.Measurement, len(v.s.measurements))
	copy(out, v.s.measurements)
	return out, nil
}

func (v measurementView) GetLatest(_ context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Measurement, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for i := len(v.s.measurements) - 1; i >= 0; i-- {
		m := v.s.measurements[i]
		if m.EntityType == entityType && m.EntityID == entityID {
			return &m, nil
		}
	}
	return nil, domain.ErrNotFound
}
