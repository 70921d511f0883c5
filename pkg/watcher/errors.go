package watcher

import "errors"

var (
	// ErrWatcherClosed is returned when using a closed watcher
	ErrWatcherClosed = errors.New("watcher is closed")
	// ErrPathNotExist is returned when watching a missing path
	ErrPathNotExist = errors.New("path does not exist")
)
