// Package app provides the entry point for the edgemcpd command-line
// application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/edgemcp/pkg/logger"
)

// NewRootCmd creates the root command for the edgemcpd CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "edgemcpd",
		DisableAutoGenTag: true,
		Short:             "edgemcpd is the core runtime of an embedded-device Model Context Protocol server",
		Long: `edgemcpd hosts a tool registry, composite executor, bytecode interpreter, and
driver bridge behind a JSON request/response protocol. Tools may be native,
composite, script-backed, or compiled bytecode; drivers may be compiled in or
bridged in through native function pointers.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				logger.Errorf("error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: XDG config location)")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("error binding debug flag: %v", err)
	}
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("error binding config flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newToolCmd())
	rootCmd.AddCommand(newDriverCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}

// configPath resolves the --config flag (bound into viper by NewRootCmd),
// returning ("", false) when unset so callers fall back to the XDG
// default location.
func configPath() (string, bool) {
	path := viper.GetString("config")
	return path, path != ""
}
