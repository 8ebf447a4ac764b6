package cli

import (
	"github.com/simaogato/wealthflow-planner/internal/report"
	"github.com/spf13/cobra"
)

func newSummaryCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the current totals of the portfolio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, rc)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.summaries.GetSummary(cmd.Context(), e.store.PortfolioID())
			if err != nil {
				return err
			}
			return report.WriteSummary(cmd.OutOrStdout(), s, e.formatter)
		},
	}
}
