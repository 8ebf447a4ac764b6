package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newProjectCmd(rc *RootConfig) *cobra.Command {
	var w windowFlags

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project the portfolio over a window of months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, rc)
			if err != nil {
				return err
			}
			defer e.Close()

			req, err := w.request(e.store.PortfolioID(), time.Now(), e.cfg.Projection.HorizonMonths)
			if err != nil {
				return err
			}
			result, err := e.projections.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return w.print(cmd.OutOrStdout(), result, e.formatter)
		},
	}

	w.register(cmd)
	return cmd
}
