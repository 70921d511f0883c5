package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/modelcfg/pkg/layers"
	"github.com/ethpandaops/modelcfg/pkg/redis"
	"github.com/ethpandaops/modelcfg/pkg/workspace"
)

// CLIConfig represents minimal configuration for one-shot CLI commands
type CLIConfig struct {
	// Logging level
	Logging string `yaml:"logging" default:"error"`

	// Workspace to index
	Workspace workspace.Config `yaml:"workspace"`

	// Layer enumeration
	Layers layers.Config `yaml:"layers"`

	// Redis configuration (optional, shares the layer cache with a running server)
	Redis redis.Config `yaml:"redis,omitempty"`
}

// Validate validates the CLI configuration
func (c *CLIConfig) Validate() error {
	if c.Workspace.Root == "" {
		c.Workspace.Root = "."
	}

	// One-shot commands never resync
	c.Workspace.Resync = ""

	if err := c.Workspace.Validate(); err != nil {
		return fmt.Errorf("workspace: %w", err)
	}

	if err := c.Layers.Validate(); err != nil {
		return fmt.Errorf("layers: %w", err)
	}

	return c.Redis.Validate()
}

// LoadCLIConfig loads CLI configuration from a YAML file
func LoadCLIConfig(path string) (*CLIConfig, error) {
	if path == "" {
		path = "cli.yaml"
	}

	config := &CLIConfig{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	// Try to read the file, but allow it to not exist
	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

// loadValidatedConfig loads the CLI config and applies --root
func loadValidatedConfig() (*CLIConfig, error) {
	cfg, err := LoadCLIConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if rootFlag != "" {
		cfg.Workspace.Root = rootFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// openWorkspace builds the index of the configured workspace once. The
// caller closes the returned manager.
func openWorkspace(ctx context.Context, cfg *CLIConfig) (*workspace.Manager, error) {
	m := workspace.NewManager(logger, &cfg.Workspace)
	if err := m.Open(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}

	return m, nil
}

// newEnumerator builds the layer enumerator, sharing the server's Redis
// cache when one is configured.
func newEnumerator(ctx context.Context, cfg *CLIConfig) (*layers.CachedEnumerator, func(), error) {
	if !cfg.Redis.Enabled() {
		e, err := layers.NewDefaultEnumerator(logger, &cfg.Layers, nil, "")
		return e, func() {}, err
	}

	client, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	closer := func() { _ = client.Close() }

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, using in-process layer cache")
		closer()

		e, err := layers.NewDefaultEnumerator(logger, &cfg.Layers, nil, "")
		return e, func() {}, err
	}

	e, err := layers.NewDefaultEnumerator(logger, &cfg.Layers, client, cfg.Redis.PrefixKey(""))
	if err != nil {
		closer()
		return nil, nil, err
	}

	return e, closer, nil
}
