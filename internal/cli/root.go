// Package cli implements the fplan command line: projections, scenarios and
// summaries of a portfolio described in a YAML file.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootConfig holds the persistent flag values shared by every subcommand
type RootConfig struct {
	ConfigPath string
	File       string
	PrimePath  string
	CPIPath    string
	CachePath  string
	LogLevel   string
	Currency   string
}

// NewRootCmd builds the fplan command tree
func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "fplan",
		Short:         "fplan projects a portfolio of assets, loans and revenue streams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVarP(&rc.File, "file", "f", "portfolio.yaml", "Portfolio YAML file")
	cmd.PersistentFlags().StringVar(&rc.PrimePath, "prime", "", "Prime rate CSV (start,end,rate)")
	cmd.PersistentFlags().StringVar(&rc.CPIPath, "cpi", "", "CPI CSV (date,cpi[,change,change_percent])")
	cmd.PersistentFlags().StringVar(&rc.CachePath, "cache", "", "SQLite projection cache (optional)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&rc.Currency, "currency", "", "Currency code used when the portfolio names none")

	cmd.AddCommand(
		newProjectCmd(rc),
		newScenarioCmd(rc),
		newSummaryCmd(rc),
	)

	return cmd
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
