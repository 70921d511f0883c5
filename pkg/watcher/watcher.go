// Package watcher reports filesystem changes under a workspace root.
package watcher

import (
	"strings"
	"time"
)

// Op is a bitmask of filesystem operations
type Op uint32

const (
	// OpCreate means a path was created
	OpCreate Op = 1 << iota
	// OpWrite means a file was written
	OpWrite
	// OpRemove means a path was removed
	OpRemove
	// OpRename means a path was renamed; OldPath holds the previous name
	OpRename
	// OpChmod means attributes changed
	OpChmod
)

// Has reports whether o includes other
func (o Op) Has(other Op) bool {
	return o&other != 0
}

func (o Op) String() string {
	var parts []string
	if o.Has(OpCreate) {
		parts = append(parts, "CREATE")
	}
	if o.Has(OpWrite) {
		parts = append(parts, "WRITE")
	}
	if o.Has(OpRemove) {
		parts = append(parts, "REMOVE")
	}
	if o.Has(OpRename) {
		parts = append(parts, "RENAME")
	}
	if o.Has(OpChmod) {
		parts = append(parts, "CHMOD")
	}
	if len(parts) == 0 {
		return "NONE"
	}

	return strings.Join(parts, "|")
}

// Event is one filesystem change
type Event struct {
	Op        Op
	Path      string
	OldPath   string
	IsDir     bool
	Timestamp time.Time
}

// Watcher delivers events in the order the filesystem reported them
type Watcher interface {
	WatchRecursive(path string) error
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// Config configures the filesystem watcher
type Config struct {
	Enabled      bool          `yaml:"enabled" default:"true"`
	BufferSize   int           `yaml:"bufferSize" default:"256"`
	RenameWindow time.Duration `yaml:"renameWindow" default:"100ms"`
	IgnoreHidden bool          `yaml:"ignoreHidden" default:"true"`
	Ignore       []string      `yaml:"ignore"`
}

// Validate fills unset values
func (c *Config) Validate() error {
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}

	if c.RenameWindow <= 0 {
		c.RenameWindow = 100 * time.Millisecond
	}

	return nil
}
