package scaffold

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ethpandaops/modelcfg/internal/testutil"
	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/ethpandaops/modelcfg/pkg/cfgobj"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfigName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		base     string
		want     string
		wantErr  error
	}{
		{name: "empty base", base: "", wantErr: ErrInvalidArgument},
		{name: "free base name", base: "model", want: "model.cfg"},
		{name: "first suffix", existing: []string{"model.cfg"}, base: "model", want: "model(1).cfg"},
		{name: "skips taken suffixes", existing: []string{"model.cfg", "model(1).cfg", "model(2).cfg"}, base: "model", want: "model(3).cfg"},
		{name: "other kinds are not counted", existing: []string{"model.cfg", "model.edgetpucfg"}, base: "model", want: "model(1).cfg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testutil.NewWorkspace(t)
			for _, f := range tt.existing {
				ws.Touch(f)
			}

			got, err := FindConfigName(tt.base, ws.Root, ".cfg")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindConfigNameAttemptLimit(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	ws.Touch("model.cfg")
	ws.Touch("model(1).cfg")
	ws.Touch("model(2).cfg")
	ws.Touch("model(3).cfg")

	got, err := FindConfigName("model", ws.Root, ".cfg")
	require.NoError(t, err)
	assert.Equal(t, "model(4).cfg", got)

	ws.Touch("model(4).cfg")

	got, err = FindConfigName("model", ws.Root, ".cfg")
	require.NoError(t, err)
	assert.Equal(t, "model(5).cfg", got)

	// a single existing file leaves exactly one suffixed candidate
	only := testutil.NewWorkspace(t)
	only.Touch("net.cfg")

	got, err = FindConfigName("net", only.Root, ".cfg")
	require.NoError(t, err)
	assert.Equal(t, "net(1).cfg", got)
}

func TestValidateConfigName(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	ws.Touch("taken.edgetpucfg")

	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{name: "valid", file: "new.edgetpucfg"},
		{name: "empty", file: "", wantErr: ErrInvalidArgument},
		{name: "path separator", file: "sub/new.edgetpucfg", wantErr: ErrInvalidArgument},
		{name: "wrong extension", file: "new.cfg", wantErr: ErrInvalidExtension},
		{name: "extension only", file: ".edgetpucfg", wantErr: ErrInvalidExtension},
		{name: "exists", file: "taken.edgetpucfg", wantErr: ErrAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigName(ws.Root, tt.file, ".edgetpucfg")
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateDefault(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	model := ws.Touch("net.onnx")
	w := NewWriter(testutil.NewLogger())
	ctx := context.Background()

	path, err := w.CreateDefault(ctx, cfgkind.Standard(), model, "")
	require.NoError(t, err)
	assert.Equal(t, ws.Path("net.cfg"), path)

	obj, err := cfgobj.Load(path)
	require.NoError(t, err)
	require.NoError(t, obj.ParseError())
	assert.Equal(t, []string{model}, obj.BaseModelsExists())

	v, ok, err := obj.GetSection(cfgobj.DTypeKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "uint8", v)

	sections := obj.Sections()
	out, _ := sections.Get("one-import-onnx", "output_path")
	assert.Equal(t, "net.circle", out)

	// second call picks a fresh name
	second, err := w.CreateDefault(ctx, cfgkind.Standard(), model, "")
	require.NoError(t, err)
	assert.Equal(t, ws.Path("net(1).cfg"), second)

	_, err = w.CreateDefault(ctx, cfgkind.Standard(), model, "net.cfg")
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateDefaultEdgeCompile(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	model := ws.Touch("sample.tflite")
	w := NewWriter(testutil.NewLogger())

	path, err := w.CreateDefault(context.Background(), cfgkind.EdgeCompile(), model, "custom.edgetpucfg")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[edgetpu-compile]\ninput_path=sample.tflite\noutput_path=sample_edgetpu.tflite\n", string(data))
}

func TestCreateDefaultRejectsUnsupportedArtifact(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	w := NewWriter(testutil.NewLogger())

	_, err := w.CreateDefault(context.Background(), cfgkind.EdgeCompile(), ws.Touch("sample_edgetpu.tflite"), "")
	require.ErrorIs(t, err, ErrUnsupportedArtifact)

	_, err = w.CreateDefault(context.Background(), cfgkind.EdgeCompile(), ws.Touch("net.onnx"), "")
	require.ErrorIs(t, err, ErrUnsupportedArtifact)

	_, err = w.CreateDefault(context.Background(), &cfgkind.Kind{Name: "custom", Ext: ".x"}, ws.Touch("a.tflite"), "")
	require.ErrorIs(t, err, ErrNoTemplate)
}

func TestSave(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	ws.Touch("model.tflite")
	path := ws.StandardConfig("model.cfg", "model.tflite")
	w := NewWriter(testutil.NewLogger())

	obj, err := cfgobj.Load(path)
	require.NoError(t, err)
	require.NoError(t, obj.AddLayers([]string{"conv"}))
	require.NoError(t, w.Save(context.Background(), obj))

	reloaded, err := cfgobj.Load(path)
	require.NoError(t, err)
	layers, err := reloaded.Layers()
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, "conv", layers[0].Name)

	entries, err := os.ReadDir(ws.Root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestSaveRespectsLock(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.StandardConfig("model.cfg", "model.tflite")
	w := NewWriter(testutil.NewLogger())

	held := flock.New(lockPath(path))
	require.NoError(t, held.Lock())
	defer func() { _ = held.Unlock() }()

	obj, err := cfgobj.Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, w.Save(ctx, obj), ErrLocked)
}
