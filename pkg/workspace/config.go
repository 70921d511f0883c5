// Package workspace owns the association index of one open workspace and
// keeps it in step with the filesystem.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
)

// Config defines the workspace being indexed
type Config struct {
	Root string `yaml:"root"`
	// Patterns select config files relative to Root; empty means every
	// registered config kind
	Patterns []string `yaml:"patterns"`
	// Ignore patterns are matched against paths relative to Root
	Ignore []string `yaml:"ignore"`
	// Resync is a cron schedule for a full rebuild; empty disables it
	Resync    string `yaml:"resync" default:"@every 10m"`
	QueueSize int    `yaml:"queueSize" default:"1024"`
}

// Validate checks the workspace configuration and resolves Root to an
// absolute path with symlinks evaluated
func (c *Config) Validate() error {
	if c.Root == "" {
		return ErrRootRequired
	}

	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	// WalkDir does not descend into a symlinked root, and index keys must
	// agree with symlink-resolved lookups.
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}

	c.Root = root

	if c.QueueSize <= 0 {
		return ErrInvalidQueueSize
	}

	if c.Resync != "" {
		if _, err := scheduleParser.Parse(c.Resync); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
	}

	return nil
}

//nolint:gochecknoglobals // parser is stateless
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
