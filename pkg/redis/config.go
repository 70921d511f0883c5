// Package redis provides Redis client configuration
package redis

import (
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// Define static errors
var (
	ErrAddressRequired = errors.New("redis address is required")
)

// Config holds Redis client configuration. An empty address disables Redis.
type Config struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix" default:"modelcfg"`
}

// Enabled reports whether an address is configured.
func (c *Config) Enabled() bool {
	return c.Address != ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}

	if c.Prefix == "" {
		c.Prefix = "modelcfg"
	}

	return nil
}

// PrefixKey adds the configured prefix to a Redis key
func (c *Config) PrefixKey(key string) string {
	if c.Prefix == "" {
		return key
	}

	return fmt.Sprintf("%s:%s", c.Prefix, key)
}

// NewClient builds a client from either a redis:// URL or a host:port address.
func NewClient(c *Config) (*goredis.Client, error) {
	if !c.Enabled() {
		return nil, ErrAddressRequired
	}

	if strings.Contains(c.Address, "://") {
		opts, err := goredis.ParseURL(c.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}

		return goredis.NewClient(opts), nil
	}

	return goredis.NewClient(&goredis.Options{Addr: c.Address}), nil
}
