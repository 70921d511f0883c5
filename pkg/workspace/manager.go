package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/ethpandaops/modelcfg/pkg/index"
	"github.com/ethpandaops/modelcfg/pkg/observability"
	"github.com/ethpandaops/modelcfg/pkg/watcher"
)

// Reset triggers, used as metric labels
const (
	TriggerOpen     = "open"
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerDir      = "directory"
)

// Invalidator drops cached data derived from an artifact
type Invalidator interface {
	Invalidate(ctx context.Context, artifactPath string) error
}

// Option configures a Manager
type Option func(*Manager)

// WithRegistry sets the config kinds the manager recognizes
func WithRegistry(r *cfgkind.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithWatcher feeds filesystem events from w into the manager. The manager
// closes w on Close.
func WithWatcher(w watcher.Watcher) Option {
	return func(m *Manager) { m.watcher = w }
}

// WithInvalidator is told about every artifact change
func WithInvalidator(inv Invalidator) Option {
	return func(m *Manager) { m.invalidator = inv }
}

type request struct {
	change *Change
	rescan string
	done   chan error
}

// Manager holds the association index of one open workspace. Every mutation
// goes through a single goroutine in arrival order.
type Manager struct {
	log         logrus.FieldLogger
	cfg         *Config
	id          string
	registry    *cfgkind.Registry
	patterns    []string
	index       *index.Index
	watcher     watcher.Watcher
	invalidator Invalidator

	requests chan request
	cron     *cron.Cron

	mu     sync.Mutex
	opened bool
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewManager creates a manager for cfg. cfg must already be validated.
func NewManager(log logrus.FieldLogger, cfg *Config, opts ...Option) *Manager {
	id := uuid.New().String()

	m := &Manager{
		log:      log.WithFields(logrus.Fields{"service": "workspace", "workspace_id": id}),
		cfg:      cfg,
		id:       id,
		registry: cfgkind.Default(),
		requests: make(chan request, cfg.QueueSize),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.patterns = cfg.Patterns
	if len(m.patterns) == 0 {
		m.patterns = m.registry.Patterns()
	}

	m.index = index.NewWithRegistry(m.log, m.registry)

	return m
}

// ID identifies this open workspace
func (m *Manager) ID() string {
	return m.id
}

// Root returns the workspace root directory
func (m *Manager) Root() string {
	return m.cfg.Root
}

// Patterns returns the glob patterns a file must match to be indexed as a config.
func (m *Manager) Patterns() []string {
	return slices.Clone(m.patterns)
}

// Index returns a read-only view of the association index
func (m *Manager) Index() index.Reader {
	return m.index
}

// Open builds the index from disk and starts following changes.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.opened {
		m.mu.Unlock()
		return ErrAlreadyOpen
	}
	m.opened = true
	m.mu.Unlock()

	m.log.WithField("root", m.cfg.Root).Info("Opening workspace")

	m.wg.Add(1)
	go m.run()

	if m.watcher != nil {
		if err := m.watcher.WatchRecursive(m.cfg.Root); err != nil {
			return fmt.Errorf("failed to watch workspace: %w", err)
		}

		m.wg.Add(1)
		go m.forwardEvents()
	}

	if err := m.rescan(ctx, TriggerOpen); err != nil {
		return err
	}

	if m.cfg.Resync != "" {
		m.cron = cron.New(cron.WithParser(scheduleParser))
		if _, err := m.cron.AddFunc(m.cfg.Resync, m.scheduledResync); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
		m.cron.Start()
	}

	m.log.WithField("configs", m.index.Size()).Info("Workspace opened")

	return nil
}

// Close stops following changes and releases the watcher.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	opened := m.opened
	m.mu.Unlock()

	if m.cron != nil {
		<-m.cron.Stop().Done()
	}

	var err error
	if m.watcher != nil {
		err = m.watcher.Close()
	}

	close(m.done)

	if opened {
		m.wg.Wait()
	}

	m.log.Info("Workspace closed")

	return err
}

// Reset rebuilds the whole index from disk and waits for it to finish.
func (m *Manager) Reset(ctx context.Context) error {
	return m.rescan(ctx, TriggerManual)
}

// Submit queues a change; it is applied after every change submitted before it.
func (m *Manager) Submit(c Change) error {
	return m.enqueue(request{change: &c})
}

// Flush waits until every change submitted before the call is applied.
func (m *Manager) Flush(ctx context.Context) error {
	return m.wait(ctx, request{})
}

func (m *Manager) rescan(ctx context.Context, trigger string) error {
	return m.wait(ctx, request{rescan: trigger})
}

func (m *Manager) wait(ctx context.Context, req request) error {
	req.done = make(chan error, 1)

	if err := m.enqueue(req); err != nil {
		return err
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}
}

func (m *Manager) enqueue(req request) error {
	m.mu.Lock()
	opened, closed := m.opened, m.closed
	m.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if !opened {
		return ErrNotOpen
	}

	select {
	case m.requests <- req:
		return nil
	case <-m.done:
		return ErrClosed
	}
}

func (m *Manager) scheduledResync() {
	if err := m.enqueue(request{rescan: TriggerSchedule}); err != nil && !errors.Is(err, ErrClosed) {
		m.log.WithError(err).Warn("Failed to schedule resync")
	}
}

func (m *Manager) run() {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		case req := <-m.requests:
			err := m.handle(req)
			if req.done != nil {
				req.done <- err
			}
		}
	}
}

func (m *Manager) handle(req request) error {
	switch {
	case req.rescan != "":
		return m.rebuild(req.rescan)
	case req.change != nil:
		return m.apply(*req.change)
	default:
		return nil
	}
}

func (m *Manager) rebuild(trigger string) error {
	start := time.Now()

	paths, err := m.Scan()
	if err != nil {
		observability.RecordError("workspace", "scan")
		return fmt.Errorf("failed to scan workspace: %w", err)
	}

	m.index.Init(paths)

	observability.RecordReset(trigger, time.Since(start).Seconds())

	m.log.WithFields(logrus.Fields{
		"trigger":  trigger,
		"configs":  m.index.Size(),
		"duration": time.Since(start),
	}).Debug("Rebuilt index")

	return nil
}

func (m *Manager) apply(c Change) error {
	m.log.WithFields(logrus.Fields{
		"change":    c.Kind,
		"node_kind": c.NodeKind,
		"path":      c.NewPath,
		"old_path":  c.OldPath,
	}).Debug("Applying change")

	observability.RecordChange(string(c.Kind), string(c.NodeKind))

	if c.NodeKind == index.NodeArtifact {
		m.invalidate(c.OldPath)
		m.invalidate(c.NewPath)
	}

	switch c.Kind {
	case ChangeCreated, ChangeChanged:
		return m.index.Update(c.NodeKind, c.NewPath, c.NewPath)
	case ChangeDeleted:
		return m.index.Reset(c.NodeKind, c.NewPath)
	case ChangeRenamed:
		return m.index.Update(c.NodeKind, c.OldPath, c.NewPath)
	default:
		return fmt.Errorf("unknown change kind %q", c.Kind)
	}
}

func (m *Manager) invalidate(path string) {
	if m.invalidator == nil || path == "" {
		return
	}

	if err := m.invalidator.Invalidate(context.Background(), path); err != nil {
		m.log.WithError(err).WithField("path", path).Warn("Failed to invalidate cached layers")
	}
}

// forwardEvents turns watcher events into queued requests until the
// watcher closes.
func (m *Manager) forwardEvents() {
	defer m.wg.Done()

	events := m.watcher.Events()
	errs := m.watcher.Errors()

	for {
		select {
		case <-m.done:
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			observability.RecordError("watcher", "event")
			m.log.WithError(err).Warn("Watcher error")
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(ev)
		}
	}
}

func (m *Manager) handleEvent(ev watcher.Event) {
	var err error

	switch {
	case m.needsRescan(ev):
		err = m.enqueue(request{rescan: TriggerDir})
	default:
		for _, c := range m.changesFor(ev) {
			if err = m.Submit(c); err != nil {
				break
			}
		}
	}

	if err != nil && !errors.Is(err, ErrClosed) {
		m.log.WithError(err).WithField("path", ev.Path).Warn("Failed to queue change")
	}
}

// needsRescan reports whether ev touched a whole directory of configs,
// which a single-path update cannot express.
func (m *Manager) needsRescan(ev watcher.Event) bool {
	if ev.IsDir {
		return true
	}

	if ev.Op.Has(watcher.OpRename) {
		if _, ok := m.classify(ev.OldPath); !ok && m.underIndexedConfig(ev.OldPath) {
			return true
		}
	}

	if ev.Op.Has(watcher.OpRemove) {
		if _, ok := m.classify(ev.Path); !ok && m.underIndexedConfig(ev.Path) {
			return true
		}
	}

	return false
}
