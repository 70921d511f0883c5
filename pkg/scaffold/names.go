// Package scaffold creates and saves configuration files next to the
// artifacts they describe.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// FindConfigName returns the first free name among base+ext, base(1)+ext, ...
// It tries one more name, base+ext included, than there are existing files
// with ext in dir.
func FindConfigName(base, dir, ext string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("%w: empty base name", ErrInvalidArgument)
	}

	candidate := base + ext
	if !exists(filepath.Join(dir, candidate)) {
		return candidate, nil
	}

	limit := countWithExt(dir, ext)
	for i := 1; i <= limit; i++ {
		candidate = fmt.Sprintf("%s(%d)%s", base, i, ext)
		if !exists(filepath.Join(dir, candidate)) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s%s in %s", ErrNoFreeName, base, ext, dir)
}

// ValidateConfigName checks that name carries ext and is free in dir.
func ValidateConfigName(dir, name, ext string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidArgument, name)
	}

	if !strings.HasSuffix(name, ext) || name == ext {
		return fmt.Errorf("%w: %s does not end in %s", ErrInvalidExtension, name, ext)
	}

	if exists(filepath.Join(dir, name)) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	return nil
}

func countWithExt(dir, ext string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	pattern := "*" + ext
	count := 0
	for _, e := range entries {
		if ok, _ := doublestar.Match(pattern, e.Name()); ok {
			count++
		}
	}

	return count
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
