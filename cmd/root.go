// Package cmd provides the command line interface for the static reports
// operator.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/log"
)

// RootCommand represents the root command for the operator CLI.
type RootCommand struct{}

var (
	cfg            *config.Settings
	configFilePath string
	unitDir        string
	verbose        bool
)

// GetCobraCommand returns the cobra root command for the operator CLI.
func (c *RootCommand) GetCobraCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "static-reports-operator",
		Short: "Operator for the Ubuntu static reports host.",
		Long: `Operator for the Ubuntu static reports host.
It installs report scripts, renders and enables their systemd service and
timer units, serves the output directory via nginx, and reacts to charm
lifecycle events.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.Init(verbose)

			if configFilePath != "" {
				config.DefaultProvider().SetConfigFilePath(configFilePath)
			}
			cfg = config.DefaultProvider().InitConfig()

			if verbose {
				cfg.Verbose = verbose
			}
			if unitDir != "" {
				cfg.UnitDir = unitDir
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFilePath, "config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&unitDir, "unit-dir", "", "Path to the systemd unit directory")

	rootCmd.AddCommand(
		(&DispatchCommand{}).GetCobraCommand(),
		(&RefreshCommand{}).GetCobraCommand(),
		(&StatusCommand{}).GetCobraCommand(),
		(&ShowCommand{}).GetCobraCommand(),
		(&VersionCommand{}).GetCobraCommand(),
	)

	return rootCmd
}
