package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/core/domain"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [build-set-id]",
		Short: "Show a build set, or every build set still running",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout())
			if len(args) == 0 {
				sets, err := c.app.OpenBuildSets(cmd.Context(), workDir(cmd), overrides(cmd))
				if err != nil {
					return err
				}
				p.openSets(sets)
				return nil
			}

			report, err := c.app.Status(cmd.Context(), workDir(cmd), overrides(cmd), domain.BuildSetID(args[0]))
			if err != nil {
				return err
			}
			p.setReport(report)
			return nil
		},
	}
}
