package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// FSNotifyWatcher implements Watcher using fsnotify. A rename followed
// directly by a create is reported as one OpRename event; a rename with no
// matching create within RenameWindow is reported as OpRemove.
type FSNotifyWatcher struct {
	mu  sync.Mutex
	log logrus.FieldLogger

	watcher *fsnotify.Watcher
	config  Config

	paths map[string]bool

	events chan Event
	errors chan error

	// pending rename awaiting its create; owned by processLoop
	pending *Event

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewFSNotifyWatcher creates a new fsnotify-based watcher.
func NewFSNotifyWatcher(log logrus.FieldLogger, cfg Config) (*FSNotifyWatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FSNotifyWatcher{
		log:     log.WithField("component", "watcher"),
		watcher: fsw,
		config:  cfg,
		paths:   make(map[string]bool),
		events:  make(chan Event, cfg.BufferSize),
		errors:  make(chan error, cfg.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

func (w *FSNotifyWatcher) watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	if w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		return err
	}

	w.paths[path] = true

	return nil
}

// WatchRecursive watches a directory and all subdirectories.
func (w *FSNotifyWatcher) WatchRecursive(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return w.watch(absPath)
	}

	err = filepath.WalkDir(absPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		if !d.IsDir() {
			return nil
		}

		if p != absPath && w.shouldIgnore(p) {
			return filepath.SkipDir
		}

		if watchErr := w.watch(p); watchErr != nil {
			if errors.Is(watchErr, ErrWatcherClosed) {
				return watchErr
			}
			w.log.WithError(watchErr).WithField("path", p).Warn("Failed to watch directory")
		}

		return nil
	})
	if err != nil {
		return err
	}

	w.log.WithFields(logrus.Fields{
		"root": absPath,
		"dirs": w.WatchedPaths(),
	}).Debug("Watching directory tree")

	return nil
}

// Events returns the event channel.
func (w *FSNotifyWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel.
func (w *FSNotifyWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes both channels.
func (w *FSNotifyWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()

	close(w.events)
	close(w.errors)

	return w.watcher.Close()
}

// WatchedPaths returns the number of watched directories.
func (w *FSNotifyWatcher) WatchedPaths() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.paths)
}

func (w *FSNotifyWatcher) processLoop() {
	defer w.closedWg.Done()

	var renameTimer <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if w.handleFSEvent(fsEvent) {
				renameTimer = time.After(w.config.RenameWindow)
			} else if w.pending == nil {
				renameTimer = nil
			}

		case <-renameTimer:
			renameTimer = nil
			w.flushPending()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// handleFSEvent converts and dispatches an fsnotify event. It returns true
// when a rename is now waiting for its create.
func (w *FSNotifyWatcher) handleFSEvent(fsEvent fsnotify.Event) bool {
	op := convertOp(fsEvent.Op)
	if op == 0 || w.shouldIgnore(fsEvent.Name) {
		return false
	}

	if op.Has(OpRename) {
		w.flushPending()
		w.pending = &Event{Op: OpRename, OldPath: fsEvent.Name, Timestamp: time.Now()}
		w.forget(fsEvent.Name)

		return true
	}

	event := Event{
		Op:        op,
		Path:      fsEvent.Name,
		Timestamp: time.Now(),
	}

	if op.Has(OpCreate) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			event.IsDir = true
			// Auto-watch new directories and anything already inside them
			if err := w.WatchRecursive(fsEvent.Name); err != nil && !errors.Is(err, ErrPathNotExist) {
				w.sendError(err)
			}
		}

		if w.pending != nil {
			event.Op = OpRename
			event.OldPath = w.pending.OldPath
			w.pending = nil
			w.sendEvent(event)

			return false
		}
	}

	if op.Has(OpRemove) {
		w.forget(fsEvent.Name)
	}

	w.flushPending()
	w.sendEvent(event)

	return false
}

// flushPending reports an unmatched rename as a removal.
func (w *FSNotifyWatcher) flushPending() {
	if w.pending == nil {
		return
	}

	event := Event{Op: OpRemove, Path: w.pending.OldPath, Timestamp: w.pending.Timestamp}
	w.pending = nil
	w.sendEvent(event)
}

// forget drops bookkeeping for a watched path that went away; fsnotify
// removes the kernel watch itself.
func (w *FSNotifyWatcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := path + string(filepath.Separator)
	for p := range w.paths {
		if p == path || len(p) > len(prefix) && p[:len(prefix)] == prefix {
			delete(w.paths, p)
		}
	}
}

// convertOp converts fsnotify.Op to watcher.Op.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}

func (w *FSNotifyWatcher) shouldIgnore(path string) bool {
	if w.config.IgnoreHidden {
		base := filepath.Base(path)
		if len(base) > 1 && base[0] == '.' {
			return true
		}
	}

	slashed := filepath.ToSlash(path)
	for _, pattern := range w.config.Ignore {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}

	return false
}

// sendEvent blocks until the consumer takes the event so ordering and
// delete/create pairs survive bursts.
func (w *FSNotifyWatcher) sendEvent(event Event) {
	select {
	case w.events <- event:
	case <-w.closeCh:
	}
}

func (w *FSNotifyWatcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		w.log.WithError(err).Warn("Watcher error channel full, dropping error")
	}
}

// Ensure FSNotifyWatcher implements Watcher.
var _ Watcher = (*FSNotifyWatcher)(nil)
