package workspace

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ethpandaops/modelcfg/internal/testutil"
	"github.com/ethpandaops/modelcfg/pkg/index"
	"github.com/ethpandaops/modelcfg/pkg/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatcher struct {
	events  chan watcher.Event
	errors  chan error
	mu      sync.Mutex
	watched []string
	closed  bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		events: make(chan watcher.Event, 16),
		errors: make(chan error, 16),
	}
}

func (f *fakeWatcher) WatchRecursive(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, path)
	return nil
}

func (f *fakeWatcher) Events() <-chan watcher.Event { return f.events }
func (f *fakeWatcher) Errors() <-chan error         { return f.errors }

func (f *fakeWatcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
		close(f.errors)
	}
	return nil
}

type recordingInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *recordingInvalidator) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func newConfig(t *testing.T, root string) *Config {
	t.Helper()

	cfg := &Config{Root: root, QueueSize: 16}
	require.NoError(t, cfg.Validate())

	return cfg
}

func openManager(t *testing.T, cfg *Config, opts ...Option) *Manager {
	t.Helper()

	m := NewManager(testutil.NewLogger(), cfg, opts...)
	require.NoError(t, m.Open(context.Background()))
	t.Cleanup(func() { _ = m.Close() })

	return m
}

func TestConfigValidate(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	file := ws.Touch("file.txt")

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "missing root", cfg: Config{QueueSize: 1}, wantErr: ErrRootRequired},
		{name: "root is a file", cfg: Config{Root: file, QueueSize: 1}, wantErr: ErrRootNotDir},
		{name: "zero queue", cfg: Config{Root: ws.Root}, wantErr: ErrInvalidQueueSize},
		{name: "bad schedule", cfg: Config{Root: ws.Root, QueueSize: 1, Resync: "whenever"}, wantErr: ErrInvalidSchedule},
		{name: "valid", cfg: Config{Root: ws.Root, QueueSize: 1, Resync: "@every 10m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBaseModelsIncludesUnreferenced(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	model := ws.Touch("net.tflite")
	lone := ws.Touch("lone.onnx")
	ws.Touch("build/skip.tflite")
	ws.Touch(".hidden/skip.tflite")
	cfg := ws.StandardConfig("net.cfg", "net.tflite")

	c := newConfig(t, ws.Root)
	c.Ignore = []string{"build/**"}

	m := openManager(t, c)

	got := m.BaseModels()
	require.Len(t, got, 2)
	assert.Equal(t, BaseModel{Path: model, Configs: []string{cfg}}, got[0])
	assert.Equal(t, lone, got[1].Path)
	assert.Empty(t, got[1].Configs)
}

func TestSymlinkedRoot(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	model := ws.Touch("real/model.tflite")
	cfg := ws.StandardConfig("real/model.cfg", "model.tflite")

	link := ws.Path("link")
	require.NoError(t, os.Symlink(ws.Path("real"), link))

	m := openManager(t, newConfig(t, link))

	assert.Equal(t, ws.Path("real"), m.Root())
	assert.Equal(t, 1, m.Index().Size())
	assert.Equal(t, []string{cfg}, m.Index().GetCfgs(model))
}

func TestOpenBuildsIndex(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	model := ws.Touch("models/net.tflite")
	cfg := ws.StandardConfig("models/net.cfg", "net.tflite")
	edge := ws.EdgeConfig("models/net.edgetpucfg", "net.tflite")
	ws.StandardConfig(".hidden/skip.cfg", "../models/net.tflite")
	ws.StandardConfig("build/skip.cfg", "../models/net.tflite")

	c := newConfig(t, ws.Root)
	c.Ignore = []string{"build/**"}

	m := openManager(t, c)

	assert.NotEmpty(t, m.ID())
	assert.Equal(t, 2, m.Index().Size())
	assert.Equal(t, []string{cfg, edge}, m.Index().GetCfgs(model))
}

func TestOpenTwice(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	m := openManager(t, newConfig(t, ws.Root))

	require.ErrorIs(t, m.Open(context.Background()), ErrAlreadyOpen)
}

func TestSubmitBeforeOpen(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	m := NewManager(testutil.NewLogger(), newConfig(t, ws.Root))

	require.ErrorIs(t, m.Submit(Change{Kind: ChangeCreated, NodeKind: index.NodeConfig, NewPath: ws.Path("a.cfg")}), ErrNotOpen)
	require.NoError(t, m.Close())
}

func TestPatternsRestrictConfigs(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	ws.Touch("a/net.tflite")
	ws.Touch("b/net.tflite")
	keep := ws.StandardConfig("a/net.cfg", "net.tflite")
	ws.StandardConfig("b/net.cfg", "net.tflite")

	c := newConfig(t, ws.Root)
	c.Patterns = []string{"a/**/*.cfg"}

	m := openManager(t, c)

	assert.Equal(t, []string{"a/**/*.cfg"}, m.Patterns())
	assert.Equal(t, []string{keep}, m.Index().ConfigPaths())
}

func TestSubmitAppliesChangesInOrder(t *testing.T) {
	ctx := context.Background()
	ws := testutil.NewWorkspace(t)
	model := ws.Touch("net.tflite")

	m := openManager(t, newConfig(t, ws.Root))
	require.Zero(t, m.Index().Size())

	cfg := ws.StandardConfig("net.cfg", "net.tflite")
	require.NoError(t, m.Submit(Change{Kind: ChangeCreated, NodeKind: index.NodeConfig, NewPath: cfg}))
	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, []string{cfg}, m.Index().GetCfgs(model))

	// delete then create of the same path must not be coalesced
	require.NoError(t, m.Submit(Change{Kind: ChangeDeleted, NodeKind: index.NodeConfig, NewPath: cfg}))
	require.NoError(t, m.Submit(Change{Kind: ChangeCreated, NodeKind: index.NodeConfig, NewPath: cfg}))
	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, 1, m.Index().Size())

	renamed := ws.Rename("net.cfg", "renamed.cfg")
	require.NoError(t, m.Submit(Change{Kind: ChangeRenamed, NodeKind: index.NodeConfig, OldPath: cfg, NewPath: renamed}))
	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, []string{renamed}, m.Index().GetCfgs(model))

	ws.Remove("renamed.cfg")
	require.NoError(t, m.Submit(Change{Kind: ChangeDeleted, NodeKind: index.NodeConfig, NewPath: renamed}))
	require.NoError(t, m.Flush(ctx))
	assert.Zero(t, m.Index().Size())
}

func TestArtifactChangesInvalidateCache(t *testing.T) {
	ctx := context.Background()
	ws := testutil.NewWorkspace(t)
	cfg := ws.StandardConfig("net.cfg", "net.tflite")

	inv := &recordingInvalidator{}
	m := openManager(t, newConfig(t, ws.Root), WithInvalidator(inv))

	// orphan until the model appears
	assert.Empty(t, m.Index().GetCfgs(ws.Path("net.tflite")))

	model := ws.Touch("net.tflite")
	require.NoError(t, m.Submit(Change{Kind: ChangeCreated, NodeKind: index.NodeArtifact, NewPath: model}))
	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, []string{cfg}, m.Index().GetCfgs(model))

	ws.Remove("net.tflite")
	require.NoError(t, m.Submit(Change{Kind: ChangeDeleted, NodeKind: index.NodeArtifact, NewPath: model}))
	require.NoError(t, m.Flush(ctx))
	assert.Empty(t, m.Index().GetCfgs(model))
	assert.NotNil(t, m.Index().GetCfgObj(cfg))

	assert.Equal(t, []string{model, model}, inv.Paths())
}

func TestResetPicksUpUnreportedFiles(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	m := openManager(t, newConfig(t, ws.Root))

	ws.Touch("net.tflite")
	ws.StandardConfig("net.cfg", "net.tflite")
	require.Zero(t, m.Index().Size())

	require.NoError(t, m.Reset(context.Background()))
	assert.Equal(t, 1, m.Index().Size())
}

func TestScheduledResync(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	c := newConfig(t, ws.Root)
	c.Resync = "@every 1s"

	m := openManager(t, c)

	ws.StandardConfig("net.cfg", "net.tflite")

	require.Eventually(t, func() bool { return m.Index().Size() == 1 }, 5*time.Second, 50*time.Millisecond)
}

func TestWatcherEventsAreApplied(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	model := ws.Touch("net.tflite")

	fw := newFakeWatcher()
	m := openManager(t, newConfig(t, ws.Root), WithWatcher(fw))
	assert.Equal(t, []string{ws.Root}, fw.watched)

	cfg := ws.StandardConfig("net.cfg", "net.tflite")
	fw.events <- watcher.Event{Op: watcher.OpCreate, Path: cfg}

	require.Eventually(t, func() bool {
		return len(m.Index().GetCfgs(model)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	edge := ws.Rename("net.cfg", "net.edgetpucfg")
	require.NoError(t, os.WriteFile(edge, []byte(testutil.EdgeConfigText("net.tflite")), 0o600))
	fw.events <- watcher.Event{Op: watcher.OpRename, OldPath: cfg, Path: edge}

	require.Eventually(t, func() bool {
		cfgs := m.Index().GetCfgs(model)
		return len(cfgs) == 1 && cfgs[0] == edge
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDirectoryRemovalRescans(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	ws.Touch("keep/net.tflite")
	ws.StandardConfig("keep/net.cfg", "net.tflite")
	ws.Touch("gone/net.tflite")
	ws.StandardConfig("gone/net.cfg", "net.tflite")

	fw := newFakeWatcher()
	m := openManager(t, newConfig(t, ws.Root), WithWatcher(fw))
	require.Equal(t, 2, m.Index().Size())

	ws.Remove("gone")
	fw.events <- watcher.Event{Op: watcher.OpRemove, Path: ws.Path("gone")}

	require.Eventually(t, func() bool { return m.Index().Size() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Nil(t, m.Index().GetCfgObj(ws.Path("gone/net.cfg")))
}

func TestChangesFor(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	m := NewManager(testutil.NewLogger(), newConfig(t, ws.Root))

	cfg := ws.Path("a.cfg")
	edge := ws.Path("a.edgetpucfg")
	model := ws.Path("a.tflite")
	text := ws.Path("a.txt")

	tests := []struct {
		name string
		ev   watcher.Event
		want []Change
	}{
		{
			name: "config created",
			ev:   watcher.Event{Op: watcher.OpCreate, Path: cfg},
			want: []Change{{Kind: ChangeCreated, NodeKind: index.NodeConfig, NewPath: cfg}},
		},
		{
			name: "config written",
			ev:   watcher.Event{Op: watcher.OpWrite, Path: cfg},
			want: []Change{{Kind: ChangeChanged, NodeKind: index.NodeConfig, NewPath: cfg}},
		},
		{
			name: "artifact removed",
			ev:   watcher.Event{Op: watcher.OpRemove, Path: model},
			want: []Change{{Kind: ChangeDeleted, NodeKind: index.NodeArtifact, NewPath: model}},
		},
		{
			name: "config renamed",
			ev:   watcher.Event{Op: watcher.OpRename, OldPath: cfg, Path: ws.Path("b.cfg")},
			want: []Change{{Kind: ChangeRenamed, NodeKind: index.NodeConfig, OldPath: cfg, NewPath: ws.Path("b.cfg")}},
		},
		{
			name: "kind changing rename",
			ev:   watcher.Event{Op: watcher.OpRename, OldPath: cfg, Path: edge},
			want: []Change{
				{Kind: ChangeDeleted, NodeKind: index.NodeConfig, NewPath: cfg},
				{Kind: ChangeCreated, NodeKind: index.NodeConfig, NewPath: edge},
			},
		},
		{
			name: "renamed away from a config",
			ev:   watcher.Event{Op: watcher.OpRename, OldPath: cfg, Path: text},
			want: []Change{{Kind: ChangeDeleted, NodeKind: index.NodeConfig, NewPath: cfg}},
		},
		{
			name: "unrelated file",
			ev:   watcher.Event{Op: watcher.OpCreate, Path: text},
		},
		{
			name: "chmod only",
			ev:   watcher.Event{Op: watcher.OpChmod, Path: cfg},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.changesFor(tt.ev))
		})
	}
}

func TestCloseStopsManager(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	fw := newFakeWatcher()

	m := NewManager(testutil.NewLogger(), newConfig(t, ws.Root), WithWatcher(fw))
	require.NoError(t, m.Open(context.Background()))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.True(t, fw.closed)
	require.ErrorIs(t, m.Submit(Change{Kind: ChangeCreated, NodeKind: index.NodeConfig, NewPath: ws.Path("a.cfg")}), ErrClosed)
	require.ErrorIs(t, m.Flush(context.Background()), ErrClosed)
	require.ErrorIs(t, m.Open(context.Background()), ErrClosed)
}
