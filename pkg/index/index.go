// Package index maintains the association between configuration files and
// the model artifacts they reference.
package index

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/ethpandaops/modelcfg/pkg/cfgobj"
	"github.com/ethpandaops/modelcfg/pkg/locator"
	"github.com/ethpandaops/modelcfg/pkg/observability"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// NodeKind tells whether a path is a configuration or an artifact
type NodeKind string

const (
	// NodeConfig is a configuration file
	NodeConfig NodeKind = "config"
	// NodeArtifact is a model artifact
	NodeArtifact NodeKind = "artifact"
)

// Reader is the read side of the index.
type Reader interface {
	GetCfgObj(configPath string) *cfgobj.ConfigObject
	GetCfgs(artifactPath string) []string
	ConfigPaths() []string
	Artifacts() []string
	Size() int
}

type entry struct {
	obj *cfgobj.ConfigObject
	seq uint64
}

// Index owns configPath -> ConfigObject and artifactPath -> configPaths. The
// second mapping is always the inverse of the first's existing base models.
type Index struct {
	mu  sync.RWMutex
	log logrus.FieldLogger

	registry *cfgkind.Registry
	read     func(path string) (*cfgobj.ConfigObject, error)

	epoch   uint64
	nextSeq uint64

	configs    map[string]*entry
	byArtifact map[string][]string
}

// New creates an empty index. A nil logger discards output.
func New(log logrus.FieldLogger) *Index {
	return NewWithRegistry(log, cfgkind.Default())
}

// NewWithRegistry creates an empty index recognizing the kinds in registry.
func NewWithRegistry(log logrus.FieldLogger, registry *cfgkind.Registry) *Index {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Index{
		log:      log.WithField("component", "index"),
		registry: registry,
		read: func(path string) (*cfgobj.ConfigObject, error) {
			return cfgobj.LoadWith(registry, path)
		},
		configs:    make(map[string]*entry),
		byArtifact: make(map[string][]string),
	}
}

// loadConcurrency bounds the number of configs parsed at once.
const loadConcurrency = 8

// load reads every path outside the lock. Missing, unreadable and
// unrecognized paths are skipped. Input order is preserved.
func (x *Index) load(paths []string) []*cfgobj.ConfigObject {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		p = filepath.Clean(p)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}

	results := make([]*cfgobj.ConfigObject, len(unique))

	var g errgroup.Group
	g.SetLimit(loadConcurrency)

	for i, p := range unique {
		g.Go(func() error {
			if obj, ok := x.loadOne(p); ok {
				results[i] = obj
			}
			return nil
		})
	}

	_ = g.Wait()

	out := make([]*cfgobj.ConfigObject, 0, len(results))
	for _, obj := range results {
		if obj != nil {
			out = append(out, obj)
		}
	}

	return out
}

func (x *Index) loadOne(p string) (*cfgobj.ConfigObject, bool) {
	if _, ok := x.registry.ForPath(p); !ok {
		x.log.WithField("path", p).Debug("Skipping unrecognized config")
		return nil, false
	}

	if !locator.Exists(p) {
		x.log.WithField("path", p).Debug("Skipping missing config")
		return nil, false
	}

	obj, err := x.read(p)
	if err != nil {
		x.log.WithError(err).WithField("path", p).Warn("Skipping unreadable config")
		return nil, false
	}

	return obj, true
}

// Init replaces the contents of the index with the given configurations.
func (x *Index) Init(cfgPaths []string) {
	x.mu.Lock()
	x.epoch++
	epoch := x.epoch
	x.mu.Unlock()

	objs := x.load(cfgPaths)

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.epoch != epoch {
		x.log.Debug("Discarding superseded init")
		return
	}

	x.configs = make(map[string]*entry, len(objs))
	x.byArtifact = make(map[string][]string)

	for _, obj := range objs {
		x.insertLocked(obj)
	}

	x.publishLocked()
}

// GetCfgObj returns the object for configPath, or nil.
func (x *Index) GetCfgObj(configPath string) *cfgobj.ConfigObject {
	x.mu.RLock()
	defer x.mu.RUnlock()

	e, ok := x.configs[filepath.Clean(configPath)]
	if !ok {
		return nil
	}

	return e.obj
}

// GetCfgs returns the configs referencing artifactPath in insertion order.
// The result is never nil.
func (x *Index) GetCfgs(artifactPath string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	cfgs, ok := x.byArtifact[filepath.Clean(artifactPath)]
	if !ok {
		return []string{}
	}

	return slices.Clone(cfgs)
}

// ConfigPaths returns every indexed config in insertion order.
func (x *Index) ConfigPaths() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.orderedConfigsLocked()
}

// Artifacts returns every linked artifact, sorted.
func (x *Index) Artifacts() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]string, 0, len(x.byArtifact))
	for a := range x.byArtifact {
		out = append(out, a)
	}
	sort.Strings(out)

	return out
}

// Size returns the number of indexed configs.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.configs)
}

// Reset removes path from the index. A config disappears along with its
// artifact links; an artifact loses its entry and its configs become orphans.
func (x *Index) Reset(kind NodeKind, path string) error {
	path = filepath.Clean(path)

	x.mu.Lock()
	defer x.mu.Unlock()

	switch kind {
	case NodeConfig:
		x.removeConfigLocked(path)
	case NodeArtifact:
		delete(x.byArtifact, path)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeKind, kind)
	}

	x.publishLocked()

	return nil
}

// Update replaces oldPath with newPath. For configs the new file is re-read;
// a missing newPath behaves as Reset(oldPath). For artifacts the old entry is
// dropped and every config now resolving to newPath is linked to it.
func (x *Index) Update(kind NodeKind, oldPath, newPath string) error {
	oldPath = filepath.Clean(oldPath)
	newPath = filepath.Clean(newPath)

	switch kind {
	case NodeConfig:
		x.updateConfig(oldPath, newPath)
	case NodeArtifact:
		x.updateArtifact(oldPath, newPath)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeKind, kind)
	}

	return nil
}

func (x *Index) updateConfig(oldPath, newPath string) {
	x.mu.RLock()
	epoch := x.epoch
	x.mu.RUnlock()

	obj, ok := x.loadOne(newPath)

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.epoch != epoch {
		observability.RecordStaleUpdate()
		x.log.WithField("path", newPath).Debug("Discarding update started before re-init")
		return
	}

	x.removeConfigLocked(oldPath)
	if newPath != oldPath {
		x.removeConfigLocked(newPath)
	}

	if ok {
		x.insertLocked(obj)
	}

	x.publishLocked()
}

func (x *Index) updateArtifact(oldPath, newPath string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.byArtifact, oldPath)
	delete(x.byArtifact, newPath)

	for _, c := range x.orderedConfigsLocked() {
		if slices.Contains(x.configs[c].obj.BaseModelsExists(), newPath) {
			x.byArtifact[newPath] = append(x.byArtifact[newPath], c)
		}
	}

	x.publishLocked()
}

func (x *Index) insertLocked(obj *cfgobj.ConfigObject) {
	x.nextSeq++
	x.configs[obj.Path()] = &entry{obj: obj, seq: x.nextSeq}

	for _, a := range obj.BaseModelsExists() {
		if !slices.Contains(x.byArtifact[a], obj.Path()) {
			x.byArtifact[a] = append(x.byArtifact[a], obj.Path())
		}
	}
}

func (x *Index) removeConfigLocked(path string) {
	if _, ok := x.configs[path]; !ok {
		return
	}

	delete(x.configs, path)

	for a, cfgs := range x.byArtifact {
		i := slices.Index(cfgs, path)
		if i < 0 {
			continue
		}

		cfgs = slices.Delete(cfgs, i, i+1)
		if len(cfgs) == 0 {
			delete(x.byArtifact, a)
			continue
		}

		x.byArtifact[a] = cfgs
	}
}

func (x *Index) orderedConfigsLocked() []string {
	out := make([]string, 0, len(x.configs))
	for p := range x.configs {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		return x.configs[out[i]].seq < x.configs[out[j]].seq
	})

	return out
}

func (x *Index) publishLocked() {
	links := 0
	for _, cfgs := range x.byArtifact {
		links += len(cfgs)
	}

	observability.SetIndexSize(len(x.configs), len(x.byArtifact), links)
}

// Verify checks that byArtifact is exactly the inverse of the configs'
// existing base models.
func (x *Index) Verify() error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	for c, e := range x.configs {
		for _, a := range e.obj.BaseModelsExists() {
			if !slices.Contains(x.byArtifact[a], c) {
				return fmt.Errorf("%w: %s -> %s missing from artifact entry", ErrInconsistent, c, a)
			}
		}
	}

	for a, cfgs := range x.byArtifact {
		if len(cfgs) == 0 {
			return fmt.Errorf("%w: empty entry for %s", ErrInconsistent, a)
		}

		for _, c := range cfgs {
			e, ok := x.configs[c]
			if !ok {
				return fmt.Errorf("%w: %s references unknown config %s", ErrInconsistent, a, c)
			}

			if !slices.Contains(e.obj.BaseModelsExists(), a) {
				return fmt.Errorf("%w: %s no longer resolves to %s", ErrInconsistent, c, a)
			}
		}
	}

	return nil
}

var _ Reader = (*Index)(nil)
