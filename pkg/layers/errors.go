package layers

import "errors"

var (
	// ErrToolNotInstalled is returned when the enumeration tool is missing
	ErrToolNotInstalled = errors.New("layer enumeration tool is not installed")
	// ErrEnumerationFailed is returned when the tool exits with an error
	ErrEnumerationFailed = errors.New("layer enumeration failed")
	// ErrNoModel is returned when a config names no model to enumerate
	ErrNoModel = errors.New("config does not name a model")
	// ErrToolRequired is returned when no tool path is configured
	ErrToolRequired = errors.New("layer enumeration tool path is required")
	// ErrInvalidCacheSize is returned for a non-positive cache size
	ErrInvalidCacheSize = errors.New("layer cache size must be positive")
)
