// Package cmd contains the CLI commands for modelcfg
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultCLIConfig = "./cli.yaml"

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	cfgFile  string
	rootFlag string
	logLevel string
	logger   = newLogger()
)

//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "modelcfg",
	Short: "Index and edit model compiler configurations",
	Long: `modelcfg keeps track of which compiler configuration files refer to
which model artifacts in a workspace, and edits the quantization layers
those configurations carry.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is "+defaultCLIConfig+")")
	flags.StringVar(&rootFlag, "root", "", "workspace root (overrides the config file)")
	flags.StringVar(&logLevel, "log-level", "error", "log level (debug, info, warn, error, fatal, panic)")
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return log
}

// setupLogging applies --log-level and the default config path before any
// subcommand runs.
func setupLogging(_ *cobra.Command, _ []string) error {
	if cfgFile == "" {
		cfgFile = defaultCLIConfig
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, defaulting to error")
		level = logrus.ErrorLevel
	}
	logger.SetLevel(level)

	return nil
}
