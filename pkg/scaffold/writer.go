package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/ethpandaops/modelcfg/pkg/cfgobj"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

const lockRetryDelay = 50 * time.Millisecond

// Writer creates and saves configuration files under an advisory file lock.
type Writer struct {
	log       logrus.FieldLogger
	templates *TemplateEngine
}

// NewWriter creates a writer using the built-in templates.
func NewWriter(log logrus.FieldLogger) *Writer {
	return &Writer{
		log:       log.WithField("component", "scaffold"),
		templates: NewTemplateEngine(),
	}
}

// CreateDefault writes kind's default config for artifactPath into the
// artifact's directory. An empty name picks a free one from the artifact's
// stem. It never overwrites an existing file.
func (w *Writer) CreateDefault(ctx context.Context, kind *cfgkind.Kind, artifactPath, name string) (string, error) {
	dir := filepath.Dir(artifactPath)
	input := filepath.Base(artifactPath)

	if name == "" {
		stem := input[:len(input)-len(filepath.Ext(input))]

		found, err := FindConfigName(stem, dir, kind.Ext)
		if err != nil {
			return "", err
		}
		name = found
	}

	if err := ValidateConfigName(dir, name, kind.Ext); err != nil {
		return "", err
	}

	text, err := w.templates.Render(kind, input)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)

	err = withLock(ctx, path, func() error {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // Workspace file path
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
			}
			return err
		}

		if _, err := f.WriteString(text); err != nil {
			_ = f.Close()
			return err
		}

		return f.Close()
	})
	if err != nil {
		return "", err
	}

	w.log.WithField("path", path).Info("Created config")

	return path, nil
}

// Save writes obj's canonical text back to its path. The file is replaced
// atomically so readers never observe a partial write.
func (w *Writer) Save(ctx context.Context, obj *cfgobj.ConfigObject) error {
	path := obj.Path()
	text := obj.GetAsString()

	err := withLock(ctx, path, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
		if err != nil {
			return err
		}

		if _, err := tmp.WriteString(text); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return err
		}

		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return err
		}

		if info, statErr := os.Stat(path); statErr == nil {
			_ = os.Chmod(tmp.Name(), info.Mode().Perm())
		}

		return os.Rename(tmp.Name(), path)
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	w.log.WithField("path", path).Debug("Saved config")

	return nil
}

// lockPath is a hidden sibling so it never matches a config pattern.
func lockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}

func withLock(ctx context.Context, path string, fn func() error) error {
	l := flock.New(lockPath(path))

	locked, err := l.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return fmt.Errorf("cannot acquire lock for %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	defer func() { _ = l.Unlock() }()

	return fn()
}
