package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the periodo-recon CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "periodo-recon",
		Short:   "Reconcile period names against a PeriodO service",
		Version: a.version,
		Long: `periodo-recon matches free-text period names against a PeriodO
reconciliation service.

It can look up single queries, inspect the service manifest, and
reconcile whole CSV, TSV or XLSX files, appending match columns and
writing an optional summary of distinct queries.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "service", Title: "Service Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", a.config.ConfigFile, "config file (default is $HOME/.periodo-recon.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVar(&a.config.Format, "format", a.config.Format, "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	// Service connection
	flags.StringVar(&a.config.Host, "host", a.config.Host, "reconciliation service host[:port]")
	flags.StringVar(&a.config.Protocol, "protocol", a.config.Protocol, "service protocol: http or https")
	flags.StringVar(&a.config.Method, "method", a.config.Method, "HTTP method for reconciliation: GET or POST")
	flags.StringVar(&a.config.Mode, "mode", a.config.Mode, "request mode: batch or single")
	flags.IntVar(&a.config.CacheSize, "cache-size", a.config.CacheSize, "per-query result cache entries (0 disables)")
	flags.IntVar(&a.config.Concurrency, "concurrency", a.config.Concurrency, "parallel requests in single mode")
	flags.DurationVar(&a.config.Timeout, "timeout", a.config.Timeout, "per-request timeout")
	flags.IntVar(&a.config.RetryMax, "retries", a.config.RetryMax, "retries for failed requests")
	flags.StringVar(&a.config.Token, "token", a.config.Token, "bearer token sent to the service")

	rootCmd.SetVersionTemplate("periodo-recon {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		loaded, err := loadConfig(mustGetString(cmd, "config"))
		if err != nil {
			return err
		}
		a.config.MergeUnset(loaded, cmd.Flags().Changed)
	}

	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	if err := a.config.Validate(); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(a.CreateCSVCommand())
	rootCmd.AddCommand(a.CreateQueryCommand())

	// Service commands
	rootCmd.AddCommand(a.CreateDescribeCommand())
	rootCmd.AddCommand(a.CreateSuggestCommand())
	rootCmd.AddCommand(a.CreatePreviewCommand())

	// Utility commands
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
