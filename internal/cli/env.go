package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simaogato/wealthflow-planner/internal/adapter/indexdata"
	"github.com/simaogato/wealthflow-planner/internal/adapter/logging"
	"github.com/simaogato/wealthflow-planner/internal/adapter/repository/file"
	"github.com/simaogato/wealthflow-planner/internal/adapter/repository/sqlite"
	"github.com/simaogato/wealthflow-planner/internal/config"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/report"
	"github.com/simaogato/wealthflow-planner/internal/usecase/projection"
	"github.com/simaogato/wealthflow-planner/internal/usecase/summary"
)

// env is everything a subcommand needs, wired from the flags, the config
// file and the portfolio document
type env struct {
	cfg         *config.Config
	store       *file.Store
	projections *projection.ProjectionService
	summaries   *summary.SummaryService
	formatter   report.Formatter
	cache       *sqlite.Cache
}

func openEnv(cmd *cobra.Command, rc *RootConfig) (*env, error) {
	// 1. Settings: config file and environment, then flags
	cfg, err := config.Load(rc.ConfigPath)
	if err != nil {
		return nil, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Index.PrimePath, rc.PrimePath)
	override(&cfg.Index.CPIPath, rc.CPIPath)
	override(&cfg.Cache.SQLitePath, rc.CachePath)
	override(&cfg.LogLevel, rc.LogLevel)
	override(&cfg.Projection.Currency, rc.Currency)

	// 2. Portfolio document; its own index tables are used unless overridden
	store, err := file.Load(rc.File)
	if err != nil {
		return nil, err
	}
	prime, cpi := store.IndexPaths()
	if cfg.Index.PrimePath == "" {
		cfg.Index.PrimePath = prime
	}
	if cfg.Index.CPIPath == "" {
		cfg.Index.CPIPath = cpi
	}

	e := &env{cfg: cfg, store: store}

	// 3. Optional cache
	var cacheRepo domain.ProjectionCacheRepository
	if cfg.Cache.SQLitePath != "" {
		if e.cache, err = sqlite.NewCache(cfg.Cache.SQLitePath); err != nil {
			return nil, err
		}
		cacheRepo = e.cache
	}

	// 4. Services
	logger := logging.NewConsole(cmd.ErrOrStderr(), cfg.LogLevel)
	e.projections = projection.NewProjectionService(
		store.Portfolios(),
		store.Measurements(),
		store.ScenarioRepository(),
		indexdata.NewRepository(cfg.Index.PrimePath, cfg.Index.CPIPath),
		cacheRepo,
	)
	e.projections.Sink = logging.NewSink(logger)
	e.summaries = summary.NewSummaryService(store.Portfolios())

	currency := cfg.Projection.Currency
	if p, err := store.Portfolios().GetByID(cmd.Context(), store.PortfolioID()); err == nil && p.Currency != "" {
		currency = p.Currency
	}
	e.formatter = report.NewFormatter(currency)
	return e, nil
}

func (e *env) Close() error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Close()
}

// windowFlags are the projection window flags shared by project and scenario
type windowFlags struct {
	Start       string
	End         string
	AsOf        string
	Months      int
	JSON        bool
	Instruments bool
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.Start, "start", "", "First projected month (default: current month)")
	cmd.Flags().StringVar(&w.End, "end", "", "Month after the last projected month (default: start + --months)")
	cmd.Flags().StringVar(&w.AsOf, "as-of", "", "Project as of this date, ignoring later measurements")
	cmd.Flags().IntVar(&w.Months, "months", 0, "Horizon in months when --end is not given (default from config)")
	cmd.Flags().BoolVar(&w.JSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&w.Instruments, "instruments", false, "Also print the closing value of every instrument")
}

func (w *windowFlags) request(portfolioID uuid.UUID, now time.Time, horizon int) (domain.ProjectionRequest, error) {
	req := domain.ProjectionRequest{PortfolioID: portfolioID, StartDate: domain.MonthStart(now)}

	if w.Start != "" {
		start, err := domain.ParseDate(w.Start)
		if err != nil {
			return req, fmt.Errorf("--start: %w", err)
		}
		req.StartDate = start
	}

	months := horizon
	if w.Months > 0 {
		months = w.Months
	}
	req.EndDate = domain.AddMonths(req.StartDate, months)
	if w.End != "" {
		end, err := domain.ParseDate(w.End)
		if err != nil {
			return req, fmt.Errorf("--end: %w", err)
		}
		req.EndDate = end
	}

	if w.AsOf != "" {
		asOf, err := domain.ParseDate(w.AsOf)
		if err != nil {
			return req, fmt.Errorf("--as-of: %w", err)
		}
		req.AsOfDate = &asOf
	}
	return req, nil
}

func (w *windowFlags) print(out io.Writer, result *domain.ProjectionResult, f report.Formatter) error {
	if w.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if err := report.WriteProjection(out, result, f); err != nil {
		return err
	}
	if w.Instruments {
		fmt.Fprintln(out)
		return report.WriteInstruments(out, result, f)
	}
	return nil
}
