package file

import (
	"time"

	"github.com/shopspring/decimal"
)

// document is the on-disk YAML shape of a portfolio file
type document struct {
	ID             string           `yaml:"id"`
	Name           string           `yaml:"name"`
	Version        int              `yaml:"version"`
	Currency       string           `yaml:"currency"`
	Assets         []assetDoc       `yaml:"assets"`
	Loans          []loanDoc        `yaml:"loans"`
	RevenueStreams []streamDoc      `yaml:"revenue_streams"`
	CashFlows      []cashFlowDoc    `yaml:"cash_flows"`
	Measurements   []measurementDoc `yaml:"measurements"`
	Scenarios      []scenarioDoc    `yaml:"scenarios"`
	Index          *indexDoc        `yaml:"index,omitempty"`
}

type assetDoc struct {
	ID                    string           `yaml:"id"`
	Name                  string           `yaml:"name"`
	Type                  string           `yaml:"type"`
	StartDate             string           `yaml:"start_date"`
	OriginalValue         decimal.Decimal  `yaml:"original_value"`
	CurrentValue          *decimal.Decimal `yaml:"current_value"`
	AppreciationRate      string           `yaml:"appreciation_rate"`
	YearlyFee             string           `yaml:"yearly_fee"`
	MonthlyPayment        decimal.Decimal  `yaml:"monthly_payment"`
	SellDate              string           `yaml:"sell_date"`
	SellTax               decimal.Decimal  `yaml:"sell_tax"`
	EndDate               string           `yaml:"end_date"`
	ConversionDate        string           `yaml:"conversion_date"`
	ConversionCoefficient decimal.Decimal  `yaml:"conversion_coefficient"`
	Deposits              []cashFlowDoc    `yaml:"deposits"`
	Withdrawals           []cashFlowDoc    `yaml:"withdrawals"`
	RevenueStream         *streamDoc       `yaml:"revenue_stream"`
	History               []valueDoc       `yaml:"history"`
}

type valueDoc struct {
	Date  string          `yaml:"date"`
	Value decimal.Decimal `yaml:"value"`
}

type loanDoc struct {
	ID                  string           `yaml:"id"`
	Name                string           `yaml:"name"`
	Type                string           `yaml:"type"`
	StartDate           string           `yaml:"start_date"`
	OriginalValue       decimal.Decimal  `yaml:"original_value"`
	CurrentBalance      *decimal.Decimal `yaml:"current_balance"`
	InterestRate        string           `yaml:"interest_rate"`
	DurationMonths      int              `yaml:"duration_months"`
	Margin              string           `yaml:"margin"`
	InflationRate       string           `yaml:"inflation_rate"`
	ExpectedCPIIncrease *decimal.Decimal `yaml:"expected_cpi_increase"`
	RepaymentDate       string           `yaml:"repayment_date"`
	Collateral          string           `yaml:"collateral"`
}

type streamDoc struct {
	ID                string          `yaml:"id"`
	Name              string          `yaml:"name"`
	Type              string          `yaml:"type"`
	StartDate         string          `yaml:"start_date"`
	EndDate           string          `yaml:"end_date"`
	Amount            decimal.Decimal `yaml:"amount"`
	Period            string          `yaml:"period"`
	TaxRate           string          `yaml:"tax_rate"`
	GrowthRate        string          `yaml:"growth_rate"`
	DividendYield     decimal.Decimal `yaml:"dividend_yield"`
	PayoutFrequency   string          `yaml:"payout_frequency"`
	WithdrawStartDate string          `yaml:"withdraw_start_date"`
}

type cashFlowDoc struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	Kind           string          `yaml:"kind"`
	Amount         decimal.Decimal `yaml:"amount"`
	From           string          `yaml:"from"`
	To             string          `yaml:"to"`
	FromOwnCapital bool            `yaml:"from_own_capital"`
}

type measurementDoc struct {
	Entity string          `yaml:"entity"` // id or name of an asset or loan
	Date   string          `yaml:"date"`
	Value  decimal.Decimal `yaml:"value"`
	Notes  string          `yaml:"notes"`
}

type scenarioDoc struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Actions     []actionDoc `yaml:"actions"`
}

type actionDoc struct {
	Type       string           `yaml:"type"`
	Target     string           `yaml:"target"` // id or name
	Field      string           `yaml:"field"`
	Value      string           `yaml:"value"`
	Changes    []patchDoc       `yaml:"changes"`
	Date       string           `yaml:"date"`
	Amount     *decimal.Decimal `yaml:"amount"`
	Asset      *assetDoc        `yaml:"asset"`
	Loan       *loanDoc         `yaml:"loan"`
	Stream     *streamDoc       `yaml:"stream"`
	CrashPct   decimal.Decimal  `yaml:"crash_pct"`
	AssetTypes []string         `yaml:"affected_asset_types"`
}

type patchDoc struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// indexDoc lets a portfolio file point at its own reference tables
type indexDoc struct {
	Prime string `yaml:"prime"`
	CPI   string `yaml:"cpi"`
}

// optionalDate parses raw, returning nil for an empty value
func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
