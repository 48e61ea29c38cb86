// Package commands implements the CLI commands for the forge build orchestrator.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/build"
)

// CLI represents the command line interface for forge.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "forge",
		Short:         "Dependency-aware build orchestration",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "C", ".", "Directory to search for forge.yaml")
	flags.String("store", "", "Store driver: memory, sqlite or pgx")
	flags.String("dsn", "", "Data source name of the store")
	flags.IntP("parallelism", "j", 0, "Maximum number of build scripts running at once")
	flags.String("log-format", "", "Log format: pretty or json")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newTriggerCmd())
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newDepsCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output and errors. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// overrides reads the persistent settings flags.
func overrides(cmd *cobra.Command) app.Overrides {
	flags := cmd.Flags()
	driver, _ := flags.GetString("store")
	dsn, _ := flags.GetString("dsn")
	parallelism, _ := flags.GetInt("parallelism")
	logFormat, _ := flags.GetString("log-format")
	return app.Overrides{
		StoreDriver: driver,
		StoreDSN:    dsn,
		Parallelism: parallelism,
		LogFormat:   logFormat,
	}
}

func workDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("dir")
	return dir
}
