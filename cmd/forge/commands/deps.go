package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/core/domain"
)

func (c *CLI) newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <configuration>",
		Short: "Show the dependencies and dependents of a configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Dependencies(workDir(cmd), domain.ConfigurationID(args[0]))
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).dependencies(report)
			return nil
		},
	}
}
