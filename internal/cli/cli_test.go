package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portfolioYAML = `
name: Test household
currency: USD
index:
  prime: prime.csv
assets:
  - name: Savings
    type: cash
    start_date: 2024-01
    original_value: 10000
    appreciation_rate: 1
  - name: Index fund
    type: stock
    start_date: 2024-01
    original_value: 50000
    appreciation_rate: 6
loans:
  - name: Car loan
    type: prime_pegged
    start_date: 2024-01
    original_value: 24000
    interest_rate: 4
    margin: 1
    duration_months: 24
revenue_streams:
  - name: Job
    type: salary
    start_date: 2024-01
    amount: 120000
    period: yearly
scenarios:
  - name: Crash
    actions:
      - type: market_crash
        date: 2024-06
        crash_pct: 40
        affected_asset_types: [stock]
`

const primeCSV = "start,end,rate\n01/01/2020,01/01/2030,4\n"

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "portfolio.yaml"), []byte(portfolioYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prime.csv"), []byte(primeCSV), 0o600))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProjectCmd(t *testing.T) {
	dir := writeFixture(t)

	out, err := run(t, "project", "-f", filepath.Join(dir, "portfolio.yaml"),
		"--start", "2024-01", "--end", "2026-01", "--instruments")

	require.NoError(t, err)
	assert.Contains(t, out, "Projection 2024-01 to 2026-01 (USD)")
	assert.Contains(t, out, "Net worth")
	assert.Contains(t, out, "2024")
	assert.Contains(t, out, "2025")
	assert.Contains(t, out, "Index fund")
	assert.Contains(t, out, "Car loan")
}

func TestProjectCmd_JSONWithCache(t *testing.T) {
	dir := writeFixture(t)
	args := []string{"project", "-f", filepath.Join(dir, "portfolio.yaml"),
		"--start", "2024-01", "--months", "12", "--json",
		"--cache", filepath.Join(dir, "cache.db")}

	first, err := run(t, args...)
	require.NoError(t, err)
	second, err := run(t, args...)
	require.NoError(t, err)

	var a, b map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.NotEmpty(t, a["run_id"])
	assert.Equal(t, a["run_id"], b["run_id"], "second run should be served from the cache")
	assert.Len(t, a["net_worth_series"], 12)
}

func TestScenarioCmd(t *testing.T) {
	dir := writeFixture(t)
	file := filepath.Join(dir, "portfolio.yaml")

	list, err := run(t, "scenario", "-f", file, "--list")
	require.NoError(t, err)
	assert.Contains(t, list, "Crash")
	assert.Contains(t, list, "1 actions")

	out, err := run(t, "scenario", "Crash", "-f", file, "--start", "2024-01", "--months", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: Crash")
	assert.Contains(t, out, "Projection 2024-01 to 2025-01")

	_, err = run(t, "scenario", "Boom", "-f", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSummaryCmd(t *testing.T) {
	dir := writeFixture(t)

	out, err := run(t, "summary", "-f", filepath.Join(dir, "portfolio.yaml"))

	require.NoError(t, err)
	assert.Contains(t, out, "Total assets")
	assert.Contains(t, out, "$60,000.00")
	assert.Contains(t, out, "$24,000.00")
	assert.Contains(t, out, "2 / 1 / 1")
}

func TestCmd_Errors(t *testing.T) {
	dir := writeFixture(t)
	file := filepath.Join(dir, "portfolio.yaml")

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{
			name:   "Missing portfolio file",
			args:   []string{"summary", "-f", filepath.Join(dir, "absent.yaml")},
			errMsg: "failed to read portfolio file",
		},
		{
			name:   "Bad start",
			args:   []string{"project", "-f", file, "--start", "someday"},
			errMsg: "--start",
		},
		{
			name:   "End before start",
			args:   []string{"project", "-f", file, "--start", "2025-01", "--end", "2024-01"},
			errMsg: "end date must be after start date",
		},
		{
			name:   "Unexpected argument",
			args:   []string{"project", "extra", "-f", file},
			errMsg: "unknown command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
