// Package lineage builds the artifact -> config -> product graph of a workspace
package lineage

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethpandaops/modelcfg/pkg/index"
	"github.com/heimdalr/dag"
)

// ErrUnknownNode is returned when a node is not part of the graph
var ErrUnknownNode = errors.New("node not in lineage graph")

// NodeType classifies a graph vertex
type NodeType string

const (
	// NodeArtifact is a base model consumed by a config
	NodeArtifact NodeType = "artifact"
	// NodeConfig is a configuration file
	NodeConfig NodeType = "config"
	// NodeProduct is a file a config produces
	NodeProduct NodeType = "product"
)

// Graph is a DAG of paths. Edges run from inputs to outputs.
type Graph struct {
	dag   *dag.DAG
	nodes map[string]NodeType
	mutex sync.RWMutex
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		dag:   dag.NewDAG(),
		nodes: make(map[string]NodeType),
	}
}

// Build replaces the graph with the current state of r
func (g *Graph) Build(r index.Reader) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.dag = dag.NewDAG()
	g.nodes = make(map[string]NodeType)

	for _, c := range r.ConfigPaths() {
		if err := g.addVertex(c, NodeConfig); err != nil {
			return err
		}
	}

	for _, a := range r.Artifacts() {
		if err := g.addVertex(a, NodeArtifact); err != nil {
			return err
		}

		for _, c := range r.GetCfgs(a) {
			if err := g.addEdge(a, c); err != nil {
				return err
			}
		}
	}

	for _, c := range r.ConfigPaths() {
		obj := r.GetCfgObj(c)
		if obj == nil {
			continue
		}

		for _, p := range obj.Products() {
			if err := g.addVertex(p, NodeProduct); err != nil {
				return err
			}

			if err := g.addEdge(c, p); err != nil {
				return err
			}
		}
	}

	return nil
}

// addVertex keeps the first type a path was seen with.
func (g *Graph) addVertex(id string, t NodeType) error {
	if _, exists := g.nodes[id]; exists {
		return nil
	}

	// Store just the path as vertex data; vertex values must be unique and hashable
	if err := g.dag.AddVertexByID(id, id); err != nil {
		return fmt.Errorf("failed to add vertex %s: %w", id, err)
	}

	g.nodes[id] = t

	return nil
}

func (g *Graph) addEdge(from, to string) error {
	if from == to {
		return nil
	}

	if ok, _ := g.dag.IsEdge(from, to); ok {
		return nil
	}

	// AddEdge returns error if it would create a cycle
	if err := g.dag.AddEdge(from, to); err != nil {
		return fmt.Errorf("invalid lineage %s → %s: %w", from, to, err)
	}

	return nil
}

// Type returns the type of a node
func (g *Graph) Type(id string) (NodeType, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	t, ok := g.nodes[id]

	return t, ok
}

// Nodes returns every node, sorted
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return g.sortedNodes()
}

func (g *Graph) sortedNodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Children returns the direct outputs of a node
func (g *Graph) Children(id string) ([]string, error) {
	return g.related(id, (*dag.DAG).GetChildren)
}

// Parents returns the direct inputs of a node
func (g *Graph) Parents(id string) ([]string, error) {
	return g.related(id, (*dag.DAG).GetParents)
}

// Descendants returns everything derived from a node
func (g *Graph) Descendants(id string) ([]string, error) {
	return g.related(id, (*dag.DAG).GetDescendants)
}

// Ancestors returns everything a node is derived from
func (g *Graph) Ancestors(id string) ([]string, error) {
	return g.related(id, (*dag.DAG).GetAncestors)
}

func (g *Graph) related(id string, get func(*dag.DAG, string) (map[string]interface{}, error)) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	found, err := get(g.dag, id)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(found))
	for k := range found {
		out = append(out, k)
	}
	sort.Strings(out)

	return out, nil
}
