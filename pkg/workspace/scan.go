package workspace

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Scan walks the workspace root once and returns every config file that
// matches the configured patterns, in lexical order.
func (m *Manager) Scan() ([]string, error) {
	var paths []string

	err := filepath.WalkDir(m.cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			m.log.WithError(err).WithField("path", p).Debug("Skipping unreadable path")
			if d != nil && d.IsDir() && p != m.cfg.Root {
				return filepath.SkipDir
			}
			return nil
		}

		if p == m.cfg.Root {
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || m.ignored(p) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if m.registry.IsConfig(p) && m.matchesPatterns(p) && !m.ignored(p) {
			paths = append(paths, p)
		}

		return nil
	})

	return paths, err
}

func (m *Manager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(m.cfg.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

func (m *Manager) matchesPatterns(path string) bool {
	rel, ok := m.relative(path)
	if !ok {
		return false
	}

	for _, pattern := range m.patterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}

	return false
}

func (m *Manager) ignored(path string) bool {
	rel, ok := m.relative(path)
	if !ok {
		return true
	}

	for _, pattern := range m.cfg.Ignore {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}

	return false
}

// underIndexedConfig reports whether any indexed config lives below dir.
func (m *Manager) underIndexedConfig(dir string) bool {
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	for _, p := range m.index.ConfigPaths() {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}

	return false
}

// BaseModel is a base model found on disk with the configs referencing it.
type BaseModel struct {
	Path    string   `json:"path"`
	Configs []string `json:"configs"`
}

// BaseModels searches the workspace for the base models of every registered
// kind, including ones no config references. Ignored paths are skipped.
func (m *Manager) BaseModels() []BaseModel {
	out := make([]BaseModel, 0)
	seen := make(map[string]struct{})

	for _, kind := range m.registry.All() {
		for _, p := range kind.BaseModels.InDir(m.cfg.Root) {
			if _, dup := seen[p]; dup || m.ignored(p) {
				continue
			}
			seen[p] = struct{}{}

			out = append(out, BaseModel{Path: p, Configs: m.index.GetCfgs(p)})
		}
	}

	return out
}
