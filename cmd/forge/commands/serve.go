package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/app"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [configurations...]",
		Short: "Run the orchestrator, rebuilding targets when forge.yaml changes",
		Long: "Serve runs build set aggregation, a Prometheus metrics endpoint and a watcher on\n" +
			"forge.yaml. Given configurations or a group, it builds them at start and after\n" +
			"every change of the catalog.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := rebuildMode(cmd)
			if err != nil {
				return err
			}
			group, _ := cmd.Flags().GetString("group")
			restart, _ := cmd.Flags().GetBool("restart")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			opts := app.ServeOptions{
				Overrides:      overrides(cmd),
				Configurations: configurationIDs(args),
				Group:          group,
				Mode:           mode,
				Restart:        restart,
			}
			opts.Overrides.MetricsAddr = metricsAddr
			opts.Overrides.BuildTimeout = timeout

			return c.app.Serve(cmd.Context(), workDir(cmd), opts)
		},
	}
	cmd.Flags().StringP("group", "g", "", "Build the members of a configuration group")
	addModeFlag(cmd)
	cmd.Flags().Bool("restart", false, "Cancel the running build set when the catalog changes")
	cmd.Flags().String("metrics-addr", "", "Listen address of the metrics endpoint")
	cmd.Flags().Duration("timeout", 0, "Maximum run time of each build script (0 disables)")
	return cmd
}
