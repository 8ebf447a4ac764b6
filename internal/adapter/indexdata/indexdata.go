// Package indexdata reads the benchmark-rate and price-index reference
// tables from CSV files.
package indexdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

// Repository implements domain.IndexRepository over two CSV files.
// A missing or unset file falls back to the built-in dataset.
type Repository struct {
	PrimePath string // columns start,end,rate (dd/mm/yyyy dates)
	CPIPath   string // columns date,cpi,change,change_percent (MM/YY dates)
}

// NewRepository creates a CSV-backed index repository
func NewRepository(primePath, cpiPath string) *Repository {
	return &Repository{PrimePath: primePath, CPIPath: cpiPath}
}

// Load implements domain.IndexRepository
func (r *Repository) Load(ctx context.Context) (domain.IndexData, error) {
	defaults := domain.DefaultIndexData()
	data := domain.IndexData{Prime: defaults.Prime, CPI: defaults.CPI}

	if err := ctx.Err(); err != nil {
		return domain.IndexData{}, err
	}

	if f, err := open(r.PrimePath); err != nil {
		return domain.IndexData{}, err
	} else if f != nil {
		defer f.Close()
		if data.Prime, err = ReadPrime(f); err != nil {
			return domain.IndexData{}, fmt.Errorf("failed to read %s: %w", r.PrimePath, err)
		}
	}

	if f, err := open(r.CPIPath); err != nil {
		return domain.IndexData{}, err
	} else if f != nil {
		defer f.Close()
		if data.CPI, err = ReadCPI(f); err != nil {
			return domain.IndexData{}, fmt.Errorf("failed to read %s: %w", r.CPIPath, err)
		}
	}

	return data, nil
}

// open returns nil without an error when path is unset or does not exist
func open(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	return f, nil
}

// ReadPrime parses a benchmark-rate table. Dates are kept as written.
func ReadPrime(r io.Reader) ([]domain.PrimeObservation, error) {
	rows, err := readTable(r, "start", "end", "rate")
	if err != nil {
		return nil, err
	}
	out := make([]domain.PrimeObservation, 0, len(rows))
	for i, row := range rows {
		rate, err := decimal.NewFromString(row["rate"])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid rate %q", i+2, row["rate"])
		}
		out = append(out, domain.PrimeObservation{
			EffectiveStart: row["start"],
			EffectiveEnd:   row["end"],
			Rate:           rate,
		})
	}
	return out, nil
}

// ReadCPI parses a monthly price-index table. The change columns are optional.
func ReadCPI(r io.Reader) ([]domain.CPIObservation, error) {
	rows, err := readTable(r, "date", "cpi")
	if err != nil {
		return nil, err
	}
	out := make([]domain.CPIObservation, 0, len(rows))
	for i, row := range rows {
		obs := domain.CPIObservation{YearMonth: row["date"]}
		for column, dst := range map[string]*decimal.Decimal{
			"cpi":            &obs.Level,
			"change":         &obs.Change,
			"change_percent": &obs.ChangePercent,
		} {
			raw := row[column]
			if raw == "" && column != "cpi" {
				continue
			}
			v, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s %q", i+2, column, raw)
			}
			*dst = v
		}
		out = append(out, obs)
	}
	return out, nil
}

// readTable reads a headed CSV into column-keyed rows, requiring the named columns
func readTable(r io.Reader, required ...string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty index file")
	}

	header := make([]string, len(records[0]))
	present := map[string]bool{}
	for i, name := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		present[header[i]] = true
	}
	for _, name := range required {
		if !present[name] {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make(map[string]string, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
