// Package engine runs a long-lived workspace: the index, its watcher and
// the query API.
package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/modelcfg/pkg/api"
	"github.com/ethpandaops/modelcfg/pkg/layers"
	"github.com/ethpandaops/modelcfg/pkg/redis"
	"github.com/ethpandaops/modelcfg/pkg/watcher"
	"github.com/ethpandaops/modelcfg/pkg/workspace"
)

// ErrInvalidLogLevel is returned when the logging level cannot be parsed
var ErrInvalidLogLevel = errors.New("invalid logging level")

// Config represents the complete engine configuration
type Config struct {
	// Core settings
	Logging         string `yaml:"logging" default:"info"`
	MetricsAddr     string `yaml:"metricsAddr" default:":9091"`
	HealthCheckAddr string `yaml:"healthCheckAddr"`
	PProfAddr       string `yaml:"pprofAddr"`

	// Workspace being indexed
	Workspace workspace.Config `yaml:"workspace"`
	Watcher   watcher.Config   `yaml:"watcher"`

	// Layer enumeration and its optional shared cache
	Layers layers.Config `yaml:"layers"`
	Redis  redis.Config  `yaml:"redis"`

	// API service configuration
	API api.Config `yaml:"api"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Logging); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging)
	}

	if err := c.Workspace.Validate(); err != nil {
		return fmt.Errorf("workspace: %w", err)
	}

	if err := c.Watcher.Validate(); err != nil {
		return fmt.Errorf("watcher: %w", err)
	}

	if err := c.Layers.Validate(); err != nil {
		return fmt.Errorf("layers: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	return c.API.Validate()
}
