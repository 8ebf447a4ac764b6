package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectionRequest is the window a caller wants projected
type ProjectionRequest struct {
	PortfolioID uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	AsOfDate    *time.Time // historical mode: replaces StartDate and filters measurements
}

// Window is a validated projection window
type Window struct {
	Start  time.Time // month start, inclusive
	End    time.Time // month start, exclusive
	Months int
}

// Contains reports whether date lies in [Start, End)
func (w Window) Contains(date time.Time) bool {
	return !date.Before(w.Start) && date.Before(w.End)
}

// Dates returns every month start of the window
func (w Window) Dates() []time.Time {
	return MonthRange(w.Start, w.Months)
}

// Window validates the request and returns its normalized window.
// The month count is the calendar month difference between start and end.
func (r ProjectionRequest) Window() (Window, error) {
	start := r.StartDate
	if r.AsOfDate != nil {
		start = *r.AsOfDate
	}
	months := MonthsBetween(start, r.EndDate)
	if months <= 0 {
		return Window{}, ErrInvalidDateRange
	}
	s := MonthStart(start)
	return Window{Start: s, End: AddMonths(s, months), Months: months}, nil
}

// IsHistorical reports whether the request runs in as-of mode
func (r ProjectionRequest) IsHistorical() bool {
	return r.AsOfDate != nil
}

// Point is one dated value of an output series
type Point struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// MeasurementMarker overlays an observed value on a projected series
type MeasurementMarker struct {
	Date        time.Time       `json:"date"`
	ActualValue decimal.Decimal `json:"actual_value"`
	EntityType  EntityType      `json:"entity_type"`
	EntityID    uuid.UUID       `json:"entity_id"`
	EntityName  string          `json:"entity_name"`
}

// AssetProjection is an asset's value trajectory
type AssetProjection struct {
	AssetID      uuid.UUID           `json:"asset_id"`
	Name         string              `json:"name"`
	Type         AssetType           `json:"type"`
	Virtual      bool                `json:"virtual"`
	Series       []Point             `json:"time_series"`
	Measurements []MeasurementMarker `json:"measurements"`
}

// LoanProjection reports a loan's balance (positive magnitude) and payments
type LoanProjection struct {
	LoanID       uuid.UUID           `json:"loan_id"`
	Name         string              `json:"name"`
	Type         LoanType            `json:"type"`
	Balance      []Point             `json:"balance_series"`
	Payments     []Point             `json:"payment_series"`
	Measurements []MeasurementMarker `json:"measurements"`
}

// FlowDirection classifies a breakdown source
type FlowDirection string

const (
	FlowIncome  FlowDirection = "income"
	FlowExpense FlowDirection = "expense"
)

// FlowCategory names the origin of a breakdown source
type FlowCategory string

const (
	CategoryLoanPayment     FlowCategory = "loan_payment"
	CategoryDeposit         FlowCategory = "deposit"
	CategoryExternalDeposit FlowCategory = "external_deposit"
	CategoryWithdrawal      FlowCategory = "withdrawal"
	CategoryRent            FlowCategory = "rent"
	CategorySalary          FlowCategory = "salary"
	CategoryDividend        FlowCategory = "dividend"
	CategoryPension         FlowCategory = "pension"
)

// CashFlowItem is one named source of income or expense, aligned to the unified month axis
type CashFlowItem struct {
	SourceName string        `json:"source_name"`
	Direction  FlowDirection `json:"source_type"`
	Category   FlowCategory  `json:"category"`
	Series     []Point       `json:"time_series"`
	EntityID   *uuid.UUID    `json:"entity_id,omitempty"`
	EntityType EntityType    `json:"entity_type,omitempty"`
}

// CashFlowBreakdown partitions monthly cash flow by source
type CashFlowBreakdown struct {
	Items        []CashFlowItem `json:"items"`
	TotalIncome  []Point        `json:"total_income_series"`
	TotalExpense []Point        `json:"total_expense_series"`
	Net          []Point        `json:"net_series"`
}

// ProjectionResult is the portfolio-level outcome of a projection run
type ProjectionResult struct {
	RunID            string              `json:"run_id"`
	PortfolioID      uuid.UUID           `json:"portfolio_id"`
	StartDate        time.Time           `json:"start_date"`
	EndDate          time.Time           `json:"end_date"`
	NetWorth         []Point             `json:"net_worth_series"`
	TotalAssets      []Point             `json:"total_assets_series"`
	TotalLiabilities []Point             `json:"total_liabilities_series"`
	NetCashFlow      []Point             `json:"monthly_cash_flow_series"`
	Breakdown        CashFlowBreakdown   `json:"cash_flow_breakdown"`
	Assets           []AssetProjection   `json:"asset_projections"`
	Loans            []LoanProjection    `json:"loan_projections"`
	Markers          []MeasurementMarker `json:"measurement_markers"`
	IsHistorical     bool                `json:"is_historical"`
	AsOfDate         *time.Time          `json:"historical_as_of_date,omitempty"`
	ComputedAt       time.Time           `json:"computed_at"`
	Diagnostics      []DiagnosticEvent   `json:"-"`
}

// PortfolioSummary is a point-in-time snapshot of the portfolio's parameters
type PortfolioSummary struct {
	PortfolioID         uuid.UUID
	TotalAssets         decimal.Decimal
	TotalLiabilities    decimal.Decimal
	NetWorth            decimal.Decimal
	MonthlyRevenue      decimal.Decimal
	MonthlyLoanPayments decimal.Decimal
	MonthlyNetCashFlow  decimal.Decimal
	AssetCount          int
	LoanCount           int
	RevenueStreamCount  int
	AsOf                time.Time
}
