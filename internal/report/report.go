// Package report renders projection results and summaries as plain-text
// tables with currency formatting.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
)

// DefaultCurrency is used when a portfolio names no currency, or one unknown to go-money
const DefaultCurrency = "USD"

// YearRow is the state of the portfolio at the last projected month of a year
type YearRow struct {
	Year        int
	NetWorth    decimal.Decimal
	Assets      decimal.Decimal
	Liabilities decimal.Decimal
	CashFlow    decimal.Decimal // sum of the year's monthly net cash flow
}

// Yearly folds the monthly series of result into one row per calendar year
func Yearly(result *domain.ProjectionResult) []YearRow {
	var rows []YearRow
	index := map[int]int{}

	row := func(year int) *YearRow {
		i, ok := index[year]
		if !ok {
			rows = append(rows, YearRow{Year: year})
			i = len(rows) - 1
			index[year] = i
		}
		return &rows[i]
	}

	// Series are month ordered, so the last write of a year wins
	for _, p := range result.NetWorth {
		row(p.Date.Year()).NetWorth = p.Value
	}
	for _, p := range result.TotalAssets {
		row(p.Date.Year()).Assets = p.Value
	}
	for _, p := range result.TotalLiabilities {
		row(p.Date.Year()).Liabilities = p.Value
	}
	for _, p := range result.NetCashFlow {
		r := row(p.Date.Year())
		r.CashFlow = r.CashFlow.Add(p.Value)
	}
	return rows
}

// Formatter renders decimal amounts in one currency
type Formatter struct {
	currency *money.Currency
}

// NewFormatter returns a formatter for the ISO currency code, falling back to DefaultCurrency
func NewFormatter(code string) Formatter {
	cur := money.GetCurrency(code)
	if cur == nil {
		cur = money.GetCurrency(DefaultCurrency)
	}
	return Formatter{currency: cur}
}

// Code returns the ISO code actually used
func (f Formatter) Code() string {
	return f.currency.Code
}

// Format renders amount rounded to the currency's minor unit
func (f Formatter) Format(amount decimal.Decimal) string {
	minor := amount.Shift(int32(f.currency.Fraction)).Round(0)
	return f.currency.Formatter().Format(minor.IntPart())
}

// WriteProjection prints the yearly table of result
func WriteProjection(w io.Writer, result *domain.ProjectionResult, f Formatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	title := "Projection"
	if result.IsHistorical && result.AsOfDate != nil {
		title = fmt.Sprintf("Projection as of %s", result.AsOfDate.Format("2006-01"))
	}
	fmt.Fprintf(w, "%s %s to %s (%s)\n", title,
		result.StartDate.Format("2006-01"), result.EndDate.Format("2006-01"), f.Code())

	fmt.Fprintln(tw, "Year\tAssets\tLiabilities\tNet worth\tNet cash flow\t")
	for _, r := range Yearly(result) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			r.Year, f.Format(r.Assets), f.Format(r.Liabilities), f.Format(r.NetWorth), f.Format(r.CashFlow))
	}
	return tw.Flush()
}

// WriteInstruments prints the closing value of every asset and loan in result
func WriteInstruments(w io.Writer, result *domain.ProjectionResult, f Formatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Instrument\tType\tClosing value\t")
	for _, a := range result.Assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", a.Name, a.Type, f.Format(last(a.Series)))
	}
	for _, l := range result.Loans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", l.Name, l.Type, f.Format(last(l.Balance)))
	}
	return tw.Flush()
}

// WriteSummary prints a portfolio snapshot
func WriteSummary(w io.Writer, s *domain.PortfolioSummary, f Formatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	lines := []struct {
		label string
		value string
	}{
		{"As of", s.AsOf.Format("2006-01-02")},
		{"Total assets", f.Format(s.TotalAssets)},
		{"Total liabilities", f.Format(s.TotalLiabilities)},
		{"Net worth", f.Format(s.NetWorth)},
		{"Monthly revenue", f.Format(s.MonthlyRevenue)},
		{"Monthly loan payments", f.Format(s.MonthlyLoanPayments)},
		{"Monthly net cash flow", f.Format(s.MonthlyNetCashFlow)},
		{"Assets / loans / streams", fmt.Sprintf("%d / %d / %d", s.AssetCount, s.LoanCount, s.RevenueStreamCount)},
	}
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\n", l.label, l.value)
	}
	return tw.Flush()
}

func last(series []domain.Point) decimal.Decimal {
	if len(series) == 0 {
		return decimal.Zero
	}
	return series[len(series)-1].Value
}
