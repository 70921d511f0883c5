package workspace

import (
	"github.com/ethpandaops/modelcfg/pkg/index"
	"github.com/ethpandaops/modelcfg/pkg/watcher"
)

// ChangeKind names what happened to a node
type ChangeKind string

const (
	// ChangeCreated means the path appeared
	ChangeCreated ChangeKind = "created"
	// ChangeChanged means the file content changed
	ChangeChanged ChangeKind = "changed"
	// ChangeDeleted means the path went away
	ChangeDeleted ChangeKind = "deleted"
	// ChangeRenamed means OldPath became NewPath
	ChangeRenamed ChangeKind = "renamed"
)

// Change is one filesystem notification about an artifact or a config.
// NewPath is the affected path for every kind except renames, where
// OldPath holds the previous name.
type Change struct {
	Kind     ChangeKind
	NodeKind index.NodeKind
	OldPath  string
	NewPath  string
}

// Path returns the path the change is about
func (c Change) Path() string {
	return c.NewPath
}

// classify returns the node kind of path, or false when the index does not
// care about it.
func (m *Manager) classify(path string) (index.NodeKind, bool) {
	switch {
	case m.registry.IsConfig(path) && m.matchesPatterns(path) && !m.ignored(path):
		return index.NodeConfig, true
	case m.registry.IsArtifact(path):
		return index.NodeArtifact, true
	default:
		return "", false
	}
}

// sameConfigKind reports whether two config paths share a config kind.
func (m *Manager) sameConfigKind(oldPath, newPath string) bool {
	oldKind, oldOK := m.registry.ForPath(oldPath)
	newKind, newOK := m.registry.ForPath(newPath)

	return oldOK && newOK && oldKind.Name == newKind.Name
}

// changesFor turns a watcher event into index changes. A rename across node
// kinds or config kinds splits into a deletion of the old path and a creation
// of the new.
func (m *Manager) changesFor(ev watcher.Event) []Change {
	newKind, newOK := m.classify(ev.Path)

	switch {
	case ev.Op.Has(watcher.OpRename):
		oldKind, oldOK := m.classify(ev.OldPath)

		if oldOK && newOK && oldKind == newKind &&
			(newKind != index.NodeConfig || m.sameConfigKind(ev.OldPath, ev.Path)) {
			return []Change{{Kind: ChangeRenamed, NodeKind: newKind, OldPath: ev.OldPath, NewPath: ev.Path}}
		}

		var out []Change
		if oldOK {
			out = append(out, Change{Kind: ChangeDeleted, NodeKind: oldKind, NewPath: ev.OldPath})
		}
		if newOK {
			out = append(out, Change{Kind: ChangeCreated, NodeKind: newKind, NewPath: ev.Path})
		}

		return out

	case !newOK:
		return nil

	case ev.Op.Has(watcher.OpRemove):
		return []Change{{Kind: ChangeDeleted, NodeKind: newKind, NewPath: ev.Path}}

	case ev.Op.Has(watcher.OpCreate):
		return []Change{{Kind: ChangeCreated, NodeKind: newKind, NewPath: ev.Path}}

	case ev.Op.Has(watcher.OpWrite):
		return []Change{{Kind: ChangeChanged, NodeKind: newKind, NewPath: ev.Path}}

	default:
		return nil
	}
}
