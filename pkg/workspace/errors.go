package workspace

import "errors"

var (
	// ErrRootRequired is returned when no workspace root is configured
	ErrRootRequired = errors.New("workspace root is required")
	// ErrRootNotDir is returned when the workspace root is not a directory
	ErrRootNotDir = errors.New("workspace root is not a directory")
	// ErrInvalidQueueSize is returned when the request queue size is not positive
	ErrInvalidQueueSize = errors.New("queue size must be positive")
	// ErrInvalidSchedule is returned when the resync schedule cannot be parsed
	ErrInvalidSchedule = errors.New("invalid resync schedule")
	// ErrAlreadyOpen is returned when Open is called twice
	ErrAlreadyOpen = errors.New("workspace already open")
	// ErrNotOpen is returned when the manager is used before Open
	ErrNotOpen = errors.New("workspace not open")
	// ErrClosed is returned when the manager has been closed
	ErrClosed = errors.New("workspace closed")
)
