package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newScenarioCmd(rc *RootConfig) *cobra.Command {
	var w windowFlags
	var list bool

	cmd := &cobra.Command{
		Use:   "scenario [name or id]",
		Short: "Project the portfolio with a scenario's actions applied",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, rc)
			if err != nil {
				return err
			}
			defer e.Close()

			if list || len(args) == 0 {
				for _, sc := range e.store.Scenarios() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d actions\n", sc.ID, sc.Name, len(sc.Actions))
				}
				return nil
			}

			sc, err := e.store.FindScenario(args[0])
			if err != nil {
				return err
			}
			req, err := w.request(e.store.PortfolioID(), time.Now(), e.cfg.Projection.HorizonMonths)
			if err != nil {
				return err
			}
			result, err := e.projections.RunScenario(cmd.Context(), sc.ID, req)
			if err != nil {
				return err
			}
			if !w.JSON {
				fmt.Fprintf(cmd.OutOrStdout(), "Scenario: %s\n", sc.Name)
			}
			return w.print(cmd.OutOrStdout(), result, e.formatter)
		},
	}

	w.register(cmd)
	cmd.Flags().BoolVar(&list, "list", false, "List the scenarios of the portfolio file")
	return cmd
}
