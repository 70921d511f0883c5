package layers

import "time"

// Config configures layer enumeration and its cache
type Config struct {
	Tool      string        `yaml:"tool" default:"/usr/share/one/bin/circle-operator"`
	Timeout   time.Duration `yaml:"timeout" default:"30s"`
	CacheSize int           `yaml:"cacheSize" default:"128"`
	CacheTTL  time.Duration `yaml:"cacheTTL" default:"1h"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Tool == "" {
		return ErrToolRequired
	}

	if c.CacheSize <= 0 {
		return ErrInvalidCacheSize
	}

	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}

	return nil
}
