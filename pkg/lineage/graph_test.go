package lineage

import (
	"testing"

	"github.com/ethpandaops/modelcfg/internal/testutil"
	"github.com/ethpandaops/modelcfg/pkg/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineageFixture struct {
	ws      *testutil.Workspace
	model   string
	std     string
	edge    string
	orphan  string
	compile string
	log     string
	circle  string
}

func buildFixture(t *testing.T) (*lineageFixture, *Graph) {
	t.Helper()

	ws := testutil.NewWorkspace(t)
	f := &lineageFixture{
		ws:      ws,
		model:   ws.Touch("model.tflite"),
		std:     ws.StandardConfig("model.cfg", "model.tflite"),
		edge:    ws.EdgeConfig("model.edgetpucfg", "model.tflite"),
		orphan:  ws.StandardConfig("orphan.cfg", "absent.onnx"),
		compile: ws.Touch("model_edgetpu.tflite"),
		log:     ws.Touch("model_edgetpu.log"),
		circle:  ws.Touch("model.circle"),
	}

	x := index.New(testutil.NewLogger())
	x.Init([]string{f.std, f.edge, f.orphan})

	g := NewGraph()
	require.NoError(t, g.Build(x))

	return f, g
}

func TestBuild(t *testing.T) {
	f, g := buildFixture(t)

	assert.Len(t, g.Nodes(), 7)

	typ, ok := g.Type(f.model)
	require.True(t, ok)
	assert.Equal(t, NodeArtifact, typ)

	typ, _ = g.Type(f.orphan)
	assert.Equal(t, NodeConfig, typ)

	typ, _ = g.Type(f.log)
	assert.Equal(t, NodeProduct, typ)

	children, err := g.Children(f.model)
	require.NoError(t, err)
	assert.Equal(t, []string{f.std, f.edge}, children)

	products, err := g.Children(f.edge)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.compile, f.log}, products)

	parents, err := g.Parents(f.circle)
	require.NoError(t, err)
	assert.Equal(t, []string{f.std}, parents)

	descendants, err := g.Descendants(f.model)
	require.NoError(t, err)
	assert.Len(t, descendants, 5)

	ancestors, err := g.Ancestors(f.log)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.model, f.edge}, ancestors)

	_, err = g.Children(f.ws.Path("nope"))
	require.ErrorIs(t, err, ErrUnknownNode)
}

func TestInfo(t *testing.T) {
	f, g := buildFixture(t)

	info := g.Info()
	assert.Equal(t, 7, info.TotalNodes)
	assert.Equal(t, 2, info.MaxLevel)
	assert.ElementsMatch(t, []string{f.model, f.orphan}, info.RootNodes)
	assert.ElementsMatch(t, []string{f.model, f.orphan}, info.Levels[0])
	assert.ElementsMatch(t, []string{f.std, f.edge}, info.Levels[1])
	assert.ElementsMatch(t, []string{f.circle, f.compile, f.log}, info.Levels[2])
	assert.Equal(t, NodeProduct, info.Types[f.circle])
}

func TestDOT(t *testing.T) {
	f, g := buildFixture(t)

	dot := g.DOT()
	assert.Contains(t, dot, "digraph lineage {")
	assert.Contains(t, dot, `"`+f.model+`" [label="model.tflite", shape=box, style=filled, fillcolor=lightblue];`)
	assert.Contains(t, dot, `"`+f.model+`" -> "`+f.edge+`";`)
	assert.Contains(t, dot, `"`+f.edge+`" -> "`+f.log+`";`)
	assert.Equal(t, dot, g.DOT())
}

func TestBuildEmpty(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Build(index.New(nil)))

	assert.Empty(t, g.Nodes())
	info := g.Info()
	assert.Zero(t, info.TotalNodes)
	assert.Empty(t, info.RootNodes)
	assert.Equal(t, "digraph lineage {\n  rankdir=LR;\n}", g.DOT())
}
