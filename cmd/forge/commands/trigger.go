package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/core/domain"
)

func (c *CLI) newTriggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger [configurations...]",
		Short: "Build configurations or a group and wait for the result",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			group, _ := cmd.Flags().GetString("group")
			if len(args) == 0 && group == "" {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}

			mode, err := rebuildMode(cmd)
			if err != nil {
				return err
			}
			timeout, _ := cmd.Flags().GetDuration("timeout")

			opts := app.TriggerOptions{
				Overrides:      overrides(cmd),
				Configurations: configurationIDs(args),
				Group:          group,
				Mode:           mode,
			}
			opts.Overrides.BuildTimeout = timeout

			report, err := c.app.Trigger(cmd.Context(), workDir(cmd), opts)
			if report != nil {
				newPrinter(cmd.OutOrStdout()).setReport(report)
			}
			return err
		},
	}
	cmd.Flags().StringP("group", "g", "", "Build the members of a configuration group")
	addModeFlag(cmd)
	cmd.Flags().Duration("timeout", 0, "Maximum run time of each build script (0 disables)")
	return cmd
}

func addModeFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("mode", "m", "", "Rebuild mode: force, implicit or explicit")
}

func rebuildMode(cmd *cobra.Command) (domain.RebuildMode, error) {
	raw, _ := cmd.Flags().GetString("mode")
	if raw == "" {
		return "", nil
	}
	return domain.ParseRebuildMode(raw)
}

func configurationIDs(args []string) []domain.ConfigurationID {
	ids := make([]domain.ConfigurationID, len(args))
	for i, arg := range args {
		ids[i] = domain.ConfigurationID(arg)
	}
	return ids
}
