package cfgobj

import (
	"testing"

	"github.com/ethpandaops/modelcfg/internal/testutil"
	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/ethpandaops/modelcfg/pkg/cfgparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	model := ws.Touch("model.tflite")
	cfg := ws.StandardConfig("model.cfg", "model.tflite")

	obj, err := Load(cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg, obj.Path())
	assert.Equal(t, cfgkind.NameStandard, obj.Kind().Name)
	assert.NoError(t, obj.ParseError())

	declared, ok := obj.DeclaredArtifactPath()
	require.True(t, ok)
	assert.Equal(t, model, declared)
	assert.Equal(t, []string{model}, obj.BaseModelsExists())
}

func TestLoadErrors(t *testing.T) {
	ws := testutil.NewWorkspace(t)

	_, err := Load(ws.Touch("notes.txt"))
	require.ErrorIs(t, err, ErrUnrecognizedKind)

	_, err = Load(ws.Path("missing.cfg"))
	require.Error(t, err)
}

func TestBaseModelsExists(t *testing.T) {
	ws := testutil.NewWorkspace(t)

	tests := []struct {
		name  string
		setup func() *ConfigObject
		want  []string
	}{
		{
			name: "artifact missing on disk",
			setup: func() *ConfigObject {
				return New(ws.Path("a.cfg"), cfgkind.Standard(), testutil.StandardConfigText("absent.tflite"))
			},
			want: []string{},
		},
		{
			name: "edge compile excludes compiled models",
			setup: func() *ConfigObject {
				ws.Touch("sample_edgetpu.tflite")
				return New(ws.Path("b.edgetpucfg"), cfgkind.EdgeCompile(), testutil.EdgeConfigText("sample_edgetpu.tflite"))
			},
			want: []string{},
		},
		{
			name: "relative path in subdirectory",
			setup: func() *ConfigObject {
				ws.Touch("sub/net.onnx")
				return New(ws.Path("sub/net.cfg"), cfgkind.Standard(), testutil.StandardConfigText("net.onnx"))
			},
			want: []string{ws.Path("sub/net.onnx")},
		},
		{
			name: "absolute path",
			setup: func() *ConfigObject {
				abs := ws.Touch("abs/m.tflite")
				return New(ws.Path("other/m.cfg"), cfgkind.Standard(), testutil.StandardConfigText(abs))
			},
			want: []string{ws.Path("abs/m.tflite")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := tt.setup()
			assert.Equal(t, tt.want, obj.BaseModelsExists())
		})
	}
}

func TestProducts(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	ws.Touch("sample.tflite")
	cfg := ws.EdgeConfig("sample.edgetpucfg", "sample.tflite")

	obj, err := Load(cfg)
	require.NoError(t, err)
	assert.Empty(t, obj.Products())

	ws.Touch("sample_edgetpu.tflite")
	ws.Touch("sample_edgetpu.log")
	assert.Equal(t, []string{ws.Path("sample_edgetpu.tflite"), ws.Path("sample_edgetpu.log")}, obj.Products())
}

func TestRoundTrip(t *testing.T) {
	obj := New("/w/model.cfg", cfgkind.Standard(), testutil.StandardConfigText("model.tflite",
		testutil.WithLayers(`[{"name":"conv","dtype":"int16","granularity":"layer"}]`)))

	before := obj.Sections()
	text := obj.GetAsString()

	obj.SetWithString(text)
	assert.True(t, before.Equal(obj.Sections()))

	again, err := cfgparser.Decode(obj.GetAsString())
	require.NoError(t, err)
	assert.True(t, before.Equal(again))
}

func TestSetWithStringMalformed(t *testing.T) {
	obj := New("/w/model.cfg", cfgkind.Standard(), testutil.StandardConfigText("model.tflite"))

	assert.NotPanics(t, func() { obj.SetWithString("[broken") })
	assert.Equal(t, "[broken", obj.GetAsString())
	assert.Empty(t, obj.Sections())
	assert.ErrorIs(t, obj.ParseError(), cfgparser.ErrMalformed)

	_, ok := obj.DeclaredArtifactPath()
	assert.False(t, ok)
	assert.Empty(t, obj.BaseModelsExists())
}

func TestSetInputPath(t *testing.T) {
	t.Run("edge compile follows output path", func(t *testing.T) {
		obj := New("/w/a.edgetpucfg", cfgkind.EdgeCompile(), testutil.EdgeConfigText("a.tflite"))
		require.NoError(t, obj.SetInputPath("b.tflite"))

		sections := obj.Sections()
		out, ok := sections.Get("edgetpu-compile", "output_path")
		require.True(t, ok)
		assert.Equal(t, "b_edgetpu.tflite", out)

		declared, _ := obj.DeclaredArtifactPath()
		assert.Equal(t, "/w/b.tflite", declared)
	})

	t.Run("standard keeps output path", func(t *testing.T) {
		obj := New("/w/a.cfg", cfgkind.Standard(), testutil.StandardConfigText("a.tflite"))
		require.NoError(t, obj.SetInputPath("c.tflite"))

		sections := obj.Sections()
		out, _ := sections.Get("one-import-tflite", "output_path")
		assert.Equal(t, "a.circle", out)
		assert.Contains(t, obj.GetAsString(), "input_path=c.tflite")
	})

	t.Run("empty config gains import section", func(t *testing.T) {
		obj := New("/w/a.cfg", cfgkind.Standard(), "")
		require.NoError(t, obj.SetInputPath("n.onnx"))

		declared, ok := obj.DeclaredArtifactPath()
		require.True(t, ok)
		assert.Equal(t, "/w/n.onnx", declared)
	})

	t.Run("empty path", func(t *testing.T) {
		obj := New("/w/a.cfg", cfgkind.Standard(), "")
		require.ErrorIs(t, obj.SetInputPath(""), ErrInvalidArgument)
	})
}
