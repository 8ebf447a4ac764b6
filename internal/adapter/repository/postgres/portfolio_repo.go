package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

// portfolioRepository implements domain.PortfolioStore
type portfolioRepository struct {
	db *DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *DB) domain.PortfolioStore {
	return &portfolioRepository{db: db}
}

// decimalParser keeps the first parse error so a row can be scanned in one pass
type decimalParser struct {
	err error
}

func (p *decimalParser) parse(column, raw string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	d, err := parseDecimal(column, raw)
	if err != nil {
		p.err = err
	}
	return d
}

// GetByID retrieves a portfolio with all its records
func (r *portfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	query := `
		SELECT id, name, version, currency
		FROM portfolios
		WHERE id = $1
	`

	var p domain.Portfolio
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Version, &p.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio by ID: %w", err)
	}

	if err := r.loadAssets(ctx, &p); err != nil {
		return nil, err
	}
	if err := r.loadStreams(ctx, &p); err != nil {
		return nil, err
	}
	if err := r.loadCashFlows(ctx, &p); err != nil {
		return nil, err
	}
	if err := r.loadLoans(ctx, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *portfolioRepository) loadAssets(ctx context.Context, p *domain.Portfolio) error {
	query := `
		SELECT id, name, asset_type, start_date, original_value, current_value,
		       appreciation_rate_pct, yearly_fee_pct, monthly_payment, sell_date, sell_tax_pct,
		       end_date, conversion_date, conversion_coefficient, history, crash_events
		FROM assets
		WHERE portfolio_id = $1
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Asset
		var assetType, original, appreciation, fee, payment, sellTax, coefficient string
		var current sql.NullString
		var sellDate, endDate, conversionDate sql.NullTime
		var history, crashes []byte

		if err := rows.Scan(&a.ID, &a.Name, &assetType, &a.StartDate, &original, &current,
			&appreciation, &fee, &payment, &sellDate, &sellTax,
			&endDate, &conversionDate, &coefficient, &history, &crashes); err != nil {
			return fmt.Errorf("failed to scan asset: %w", err)
		}

		var dp decimalParser
		a.Type = domain.AssetType(assetType)
		a.StartDate = a.StartDate.UTC()
		a.OriginalValue = dp.parse("original_value", original)
		a.AppreciationRateAnnualPct = dp.parse("appreciation_rate_pct", appreciation)
		a.YearlyFeePct = dp.parse("yearly_fee_pct", fee)
		a.MonthlyPayment = dp.parse("monthly_payment", payment)
		a.SellTaxPct = dp.parse("sell_tax_pct", sellTax)
		a.ConversionCoefficient = dp.parse("conversion_coefficient", coefficient)
		if dp.err != nil {
			return dp.err
		}
		if a.CurrentValue, err = parseNullDecimal("current_value", current); err != nil {
			return err
		}
		a.SellDate = timePtr(sellDate)
		a.EndDate = timePtr(endDate)
		a.ConversionDate = timePtr(conversionDate)

		if err := json.Unmarshal(history, &a.History); err != nil {
			return fmt.Errorf("failed to parse history of asset %s: %w", a.ID, err)
		}
		if err := json.Unmarshal(crashes, &a.CrashEvents); err != nil {
			return fmt.Errorf("failed to parse crash events of asset %s: %w", a.ID, err)
		}

		p.Assets = append(p.Assets, &a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating assets: %w", err)
	}

	return nil
}

func (r *portfolioRepository) loadStreams(ctx context.Context, p *domain.Portfolio) error {
	query := `
		SELECT id, asset_id, name, stream_type, start_date, end_date, amount, period,
		       tax_rate_pct, growth_rate_pct, dividend_yield_pct, payout_frequency, withdraw_start_date
		FROM revenue_streams
		WHERE portfolio_id = $1
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list revenue streams: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.RevenueStream
		var assetID uuid.NullUUID
		var streamType, amount, period, tax, growth, yield, frequency string
		var endDate, withdrawStart sql.NullTime

		if err := rows.Scan(&s.ID, &assetID, &s.Name, &streamType, &s.StartDate, &endDate, &amount, &period,
			&tax, &growth, &yield, &frequency, &withdrawStart); err != nil {
			return fmt.Errorf("failed to scan revenue stream: %w", err)
		}

		var dp decimalParser
		s.Type = domain.StreamType(streamType)
		s.StartDate = s.StartDate.UTC()
		s.Amount = dp.parse("amount", amount)
		s.TaxRate = dp.parse("tax_rate_pct", tax)
		s.GrowthRate = dp.parse("growth_rate_pct", growth)
		s.DividendYield = dp.parse("dividend_yield_pct", yield)
		if dp.err != nil {
			return dp.err
		}
		s.Period = domain.ParsePeriod(period)
		s.PayoutFrequency = domain.ParsePeriod(frequency)
		s.EndDate = timePtr(endDate)
		s.WithdrawStartDate = timePtr(withdrawStart)
		s.AssetID = uuidPtr(assetID)

		if s.AssetID == nil {
			p.RevenueStreams = append(p.RevenueStreams, &s)
			continue
		}
		owner := p.FindAsset(*s.AssetID)
		if owner == nil {
			return fmt.Errorf("revenue stream %s references unknown asset %s", s.ID, *s.AssetID)
		}
		owner.RevenueStream = &s
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating revenue streams: %w", err)
	}

	return nil
}

func (r *portfolioRepository) loadCashFlows(ctx context.Context, p *domain.Portfolio) error {
	query := `
		SELECT id, target_asset_id, name, kind, amount, from_date, to_date, from_own_capital
		FROM cash_flows
		WHERE portfolio_id = $1
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list cash flows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.CashFlowEntry
		var target uuid.NullUUID
		var kind, amount string

		if err := rows.Scan(&c.ID, &target, &c.Name, &kind, &amount, &c.From, &c.To, &c.FromOwnCapital); err != nil {
			return fmt.Errorf("failed to scan cash flow: %w", err)
		}
		c.Kind = domain.CashFlowKind(kind)
		if c.Amount, err = parseDecimal("amount", amount); err != nil {
			return err
		}
		c.TargetAssetID = uuidPtr(target)
		c.Normalize()

		if c.TargetAssetID == nil {
			p.CashFlows = append(p.CashFlows, &c)
			continue
		}
		owner := p.FindAsset(*c.TargetAssetID)
		if owner == nil {
			return fmt.Errorf("cash flow %s references unknown asset %s", c.ID, *c.TargetAssetID)
		}
		if c.Kind == domain.CashFlowWithdrawal {
			owner.Withdrawals = append(owner.Withdrawals, &c)
		} else {
			owner.Deposits = append(owner.Deposits, &c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating cash flows: %w", err)
	}

	return nil
}

func (r *portfolioRepository) loadLoans(ctx context.Context, p *domain.Portfolio) error {
	query := `
		SELECT id, name, loan_type, start_date, original_value, current_balance, interest_rate_pct,
		       duration_months, margin_pct, inflation_rate_pct, expected_cpi_increase_pct,
		       repayment_date, collateral_asset_id
		FROM loans
		WHERE portfolio_id = $1
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.Loan
		var loanType, original, rate, margin, inflation string
		var balance, cpiIncrease sql.NullString
		var repayment sql.NullTime
		var collateral uuid.NullUUID

		if err := rows.Scan(&l.ID, &l.Name, &loanType, &l.StartDate, &original, &balance, &rate,
			&l.DurationMonths, &margin, &inflation, &cpiIncrease, &repayment, &collateral); err != nil {
			return fmt.Errorf("failed to scan loan: %w", err)
		}

		var dp decimalParser
		l.Type = domain.LoanType(loanType)
		l.StartDate = l.StartDate.UTC()
		l.OriginalValue = dp.parse("original_value", original)
		l.InterestRateAnnualPct = dp.parse("interest_rate_pct", rate)
		l.MarginPct = dp.parse("margin_pct", margin)
		l.InflationRateAnnualPct = dp.parse("inflation_rate_pct", inflation)
		if dp.err != nil {
			return dp.err
		}
		if l.CurrentBalance, err = parseNullDecimal("current_balance", balance); err != nil {
			return err
		}
		if l.ExpectedCPIIncreasePct, err = parseNullDecimal("expected_cpi_increase_pct", cpiIncrease); err != nil {
			return err
		}
		l.RepaymentDate = timePtr(repayment)
		l.CollateralAssetID = uuidPtr(collateral)

		p.Loans = append(p.Loans, &l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating loans: %w", err)
	}

	return nil
}

// Save replaces the portfolio and every record it owns in one database
// transaction. Cached projections of the portfolio are dropped.
func (r *portfolioRepository) Save(ctx context.Context, p *domain.Portfolio) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Upsert the portfolio header
	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO portfolios (id, name, version, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, version = EXCLUDED.version, currency = EXCLUDED.currency
	`, p.ID, p.Name, p.Version, p.Currency)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio: %w", err)
	}

	// Drop the previous records; loans first because they reference assets
	for _, table := range []string{"loans", "cash_flows", "revenue_streams", "assets", "projection_cache"} {
		if _, err := dbTx.ExecContext(ctx, "DELETE FROM "+table+" WHERE portfolio_id = $1", p.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, a := range p.Assets {
		if err := insertAsset(ctx, dbTx, p.ID, i, a); err != nil {
			return err
		}
	}
	for i, s := range p.RevenueStreams {
		if err := insertStream(ctx, dbTx, p.ID, i, s); err != nil {
			return err
		}
	}
	for i, c := range p.CashFlows {
		if err := insertCashFlow(ctx, dbTx, p.ID, i, c); err != nil {
			return err
		}
	}
	for i, l := range p.Loans {
		if err := insertLoan(ctx, dbTx, p.ID, i, l); err != nil {
			return err
		}
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func insertAsset(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, position int, a *domain.Asset) error {
	history, err := json.Marshal(nonNil(a.History))
	if err != nil {
		return fmt.Errorf("failed to encode asset history: %w", err)
	}
	crashes, err := json.Marshal(nonNil(a.CrashEvents))
	if err != nil {
		return fmt.Errorf("failed to encode crash events: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assets (id, portfolio_id, position, name, asset_type, start_date, original_value, current_value,
		                    appreciation_rate_pct, yearly_fee_pct, monthly_payment, sell_date, sell_tax_pct,
		                    end_date, conversion_date, conversion_coefficient, history, crash_events)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		a.ID, portfolioID, position, a.Name, string(a.Type), a.StartDate,
		a.OriginalValue.String(), nullDecimal(a.CurrentValue),
		a.AppreciationRateAnnualPct.String(), a.YearlyFeePct.String(), a.MonthlyPayment.String(),
		nullTime(a.SellDate), a.SellTaxPct.String(),
		nullTime(a.EndDate), nullTime(a.ConversionDate), a.ConversionCoefficient.String(),
		history, crashes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset %q: %w", a.Name, err)
	}

	if a.RevenueStream != nil {
		s := a.RevenueStream.Clone()
		s.AssetID = &a.ID
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		if err := insertStream(ctx, tx, portfolioID, 0, s); err != nil {
			return err
		}
	}
	for i, c := range append(append([]*domain.CashFlowEntry(nil), a.Deposits...), a.Withdrawals...) {
		entry := c.Clone()
		entry.TargetAssetID = &a.ID
		if err := insertCashFlow(ctx, tx, portfolioID, i, entry); err != nil {
			return err
		}
	}

	return nil
}

func insertStream(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, position int, s *domain.RevenueStream) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO revenue_streams (id, portfolio_id, asset_id, position, name, stream_type, start_date, end_date,
		                             amount, period, tax_rate_pct, growth_rate_pct, dividend_yield_pct,
		                             payout_frequency, withdraw_start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		s.ID, portfolioID, nullUUID(s.AssetID), position, s.Name, string(s.Type), s.StartDate, nullTime(s.EndDate),
		s.Amount.String(), orDefault(string(s.Period), string(domain.PeriodMonthly)), s.TaxRate.String(),
		s.GrowthRate.String(), s.DividendYield.String(),
		orDefault(string(s.PayoutFrequency), string(domain.PeriodYearly)), nullTime(s.WithdrawStartDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert revenue stream %q: %w", s.Name, err)
	}
	return nil
}

func insertCashFlow(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, position int, c *domain.CashFlowEntry) error {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cash_flows (id, portfolio_id, target_asset_id, position, name, kind, amount, from_date, to_date, from_own_capital)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		id, portfolioID, nullUUID(c.TargetAssetID), position, c.Name, string(c.Kind), c.Amount.String(),
		c.From, c.To, c.FromOwnCapital,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cash flow %q: %w", c.Name, err)
	}
	return nil
}

func insertLoan(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, position int, l *domain.Loan) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO loans (id, portfolio_id, position, name, loan_type, start_date, original_value, current_balance,
		                   interest_rate_pct, duration_months, margin_pct, inflation_rate_pct,
		                   expected_cpi_increase_pct, repayment_date, collateral_asset_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		l.ID, portfolioID, position, l.Name, string(l.Type), l.StartDate, l.OriginalValue.String(),
		nullDecimal(l.CurrentBalance), l.InterestRateAnnualPct.String(), l.DurationMonths,
		l.MarginPct.String(), l.InflationRateAnnualPct.String(), nullDecimal(l.ExpectedCPIIncreasePct),
		nullTime(l.RepaymentDate), nullUUID(l.CollateralAssetID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan %q: %w", l.Name, err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
