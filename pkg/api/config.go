// Package api provides a read-only REST API over the association index.
package api

import "errors"

var (
	// ErrAPIAddrRequired is returned when the API is enabled without an address
	ErrAPIAddrRequired = errors.New("api address is required when API is enabled")
	// ErrEmptyOrigin is returned for a blank entry in corsOrigins
	ErrEmptyOrigin = errors.New("cors origin must not be empty")
)

// Config represents API service configuration
type Config struct {
	Enabled bool   `yaml:"enabled" default:"false"`
	Addr    string `yaml:"addr" default:":8080"`
	// CORSOrigins lists allowed origins. Empty allows any.
	CORSOrigins []string `yaml:"corsOrigins"`
}

// Validate validates the API configuration
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Addr == "" {
		return ErrAPIAddrRequired
	}

	for _, origin := range c.CORSOrigins {
		if origin == "" {
			return ErrEmptyOrigin
		}
	}

	return nil
}
