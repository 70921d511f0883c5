package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Workspace is a throwaway directory tree for tests.
type Workspace struct {
	t    *testing.T
	Root string
}

// NewWorkspace creates an empty workspace removed when the test completes.
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	return &Workspace{t: t, Root: root}
}

// Path returns the absolute path of rel inside the workspace.
func (w *Workspace) Path(rel string) string {
	return filepath.Join(w.Root, rel)
}

// WriteFile writes content to rel, creating parent directories.
func (w *Workspace) WriteFile(rel, content string) string {
	w.t.Helper()

	p := w.Path(rel)
	require.NoError(w.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(w.t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

// Touch creates an empty file at rel.
func (w *Workspace) Touch(rel string) string {
	w.t.Helper()

	return w.WriteFile(rel, "")
}

// Remove deletes rel.
func (w *Workspace) Remove(rel string) {
	w.t.Helper()

	require.NoError(w.t, os.RemoveAll(w.Path(rel)))
}

// Rename moves from to to and returns the new absolute path.
func (w *Workspace) Rename(from, to string) string {
	w.t.Helper()

	dst := w.Path(to)
	require.NoError(w.t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(w.t, os.Rename(w.Path(from), dst))

	return dst
}

// ConfigOption customizes a generated configuration.
type ConfigOption func(*configOptions)

type configOptions struct {
	layers      string
	dtype       string
	granularity string
}

// WithLayers sets the raw JSON body of the quantization layers key.
func WithLayers(body string) ConfigOption {
	return func(o *configOptions) {
		o.layers = body
	}
}

// WithDefaults sets the quantization section defaults.
func WithDefaults(dtype, granularity string) ConfigOption {
	return func(o *configOptions) {
		o.dtype = dtype
		o.granularity = granularity
	}
}

// StandardConfigText renders a .cfg importing input.
func StandardConfigText(input string, opts ...ConfigOption) string {
	o := &configOptions{layers: "[]", dtype: "uint8", granularity: "channel"}
	for _, opt := range opts {
		opt(o)
	}

	format := "tflite"
	switch {
	case strings.HasSuffix(input, ".onnx"):
		format = "onnx"
	case strings.HasSuffix(input, ".pb"):
		format = "tf"
	}

	stem := strings.TrimSuffix(input, filepath.Ext(input))

	return fmt.Sprintf(`[onecc]
one-import-%[1]s=True
one-quantize=True

[one-import-%[1]s]
input_path=%[2]s
output_path=%[3]s.circle

[one-quantize]
input_path=%[3]s.circle
output_path=%[3]s.q8.circle
default_quantization_dtype=%[4]s
default_granularity=%[5]s
layers=%[6]s
`, format, input, stem, o.dtype, o.granularity, o.layers)
}

// EdgeConfigText renders a .edgetpucfg compiling input.
func EdgeConfigText(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)

	return fmt.Sprintf("[edgetpu-compile]\ninput_path=%s\noutput_path=%s_edgetpu%s\n", input, stem, ext)
}

// StandardConfig writes a .cfg at rel importing input.
func (w *Workspace) StandardConfig(rel, input string, opts ...ConfigOption) string {
	w.t.Helper()

	return w.WriteFile(rel, StandardConfigText(input, opts...))
}

// EdgeConfig writes a .edgetpucfg at rel compiling input.
func (w *Workspace) EdgeConfig(rel, input string) string {
	w.t.Helper()

	return w.WriteFile(rel, EdgeConfigText(input))
}
