// Package locator finds artifact paths on disk and in configuration values.
package locator

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Locator matches paths with a given extension, optionally narrowed by Filter
// and mapped through Rewrite once accepted.
type Locator struct {
	Ext     string
	Filter  func(path string) bool
	Rewrite func(path string) string
}

// Accepts reports whether path has the locator's extension and passes its filter.
func (l Locator) Accepts(path string) bool {
	if l.Ext == "" || !strings.HasSuffix(path, l.Ext) {
		return false
	}

	if l.Filter != nil && !l.Filter(path) {
		return false
	}

	return true
}

func (l Locator) rewrite(path string) string {
	if l.Rewrite == nil {
		return path
	}

	return l.Rewrite(path)
}

// InDir returns the accepted files under dir.
func (l Locator) InDir(dir string) []string {
	found := SearchWithExt(l.Ext, dir)

	out := make([]string, 0, len(found))
	for _, p := range found {
		if l.Accepts(p) {
			out = append(out, l.rewrite(p))
		}
	}

	return out
}

// InValues returns the accepted paths among values. Relative values are
// resolved against baseDir.
func (l Locator) InValues(baseDir string, values []string) []string {
	out := make([]string, 0)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if !l.Accepts(v) {
			continue
		}

		out = append(out, l.rewrite(Resolve(baseDir, v)))
	}

	return out
}

// SearchWithExt walks dir and returns every regular file whose name ends in
// ext. Hidden subdirectories are skipped. A missing or unreadable dir yields
// an empty result.
func SearchWithExt(ext, dir string) []string {
	found := make([]string, 0)
	if ext == "" {
		return found
	}

	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ext) {
			found = append(found, p)
		}

		return nil
	})

	return found
}

// Resolve makes p absolute relative to baseDir unless it already is.
func Resolve(baseDir, p string) string {
	if p == "" {
		return ""
	}

	if filepath.IsAbs(p) || baseDir == "" {
		return filepath.Clean(p)
	}

	return filepath.Join(baseDir, p)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}
