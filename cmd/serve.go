package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/creasty/defaults"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/modelcfg/pkg/engine"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	serveCfgFile string
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch a workspace and serve the index API",
	Long: `serve keeps the association index of a workspace up to date from
filesystem events and periodic resyncs, and serves it over HTTP.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveCfgFile, "config", "modelcfg.yaml", "config file (default is modelcfg.yaml)")
}

func loadEngineConfigFromFile(file string) (*engine.Config, error) {
	if file == "" {
		file = "modelcfg.yaml"
	}

	config := &engine.Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file) //nolint:gosec // User-provided config file path
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		return config, nil
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration
	config, err := loadEngineConfigFromFile(serveCfgFile)
	if err != nil {
		return err
	}

	if rootFlag != "" {
		config.Workspace.Root = rootFlag
	}
	if config.Workspace.Root == "" {
		config.Workspace.Root = "."
	}

	// Setup logger
	level, err := logrus.ParseLevel(config.Logging)
	if err != nil {
		return err
	}
	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	log.Info("Configuration loaded")

	svc, err := engine.NewService(log, config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		_ = svc.Stop()
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down")

	return svc.Stop()
}
