package lineage

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Info contains lineage visualization information
type Info struct {
	Levels     map[int][]string    `json:"levels"`
	MaxLevel   int                 `json:"maxLevel"`
	RootNodes  []string            `json:"rootNodes"`
	TotalNodes int                 `json:"totalNodes"`
	Types      map[string]NodeType `json:"types"`
}

// Info returns the nodes grouped by depth from the roots
func (g *Graph) Info() *Info {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	levels := g.calculateLevels()

	levelGroups := make(map[int][]string)
	maxLevel := 0
	for id, level := range levels {
		if level > maxLevel {
			maxLevel = level
		}
		levelGroups[level] = append(levelGroups[level], id)
	}

	for level := range levelGroups {
		sort.Strings(levelGroups[level])
	}

	types := make(map[string]NodeType, len(g.nodes))
	for id, t := range g.nodes {
		types[id] = t
	}

	return &Info{
		Levels:     levelGroups,
		MaxLevel:   maxLevel,
		RootNodes:  g.findRootNodes(),
		TotalNodes: len(g.nodes),
		Types:      types,
	}
}

// calculateLevels assigns each node the length of the longest path from a root
func (g *Graph) calculateLevels() map[string]int {
	levels := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		levels[id] = 0
	}

	// Keep updating levels until stable
	changed := true
	for changed {
		changed = false
		for id := range g.nodes {
			parents, err := g.dag.GetParents(id)
			if err != nil {
				continue
			}

			for parent := range parents {
				if levels[parent]+1 > levels[id] {
					levels[id] = levels[parent] + 1
					changed = true
				}
			}
		}
	}

	return levels
}

func (g *Graph) findRootNodes() []string {
	roots := make([]string, 0)
	for id := range g.dag.GetRoots() {
		roots = append(roots, id)
	}
	sort.Strings(roots)

	return roots
}

// DOT renders the graph in Graphviz DOT format. Labels are base names.
func (g *Graph) DOT() string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var sb strings.Builder
	sb.WriteString("digraph lineage {\n")
	sb.WriteString("  rankdir=LR;\n")

	ids := g.sortedNodes()
	for _, id := range ids {
		label := filepath.Base(id)
		switch g.nodes[id] {
		case NodeArtifact:
			fmt.Fprintf(&sb, "  %q [label=%q, shape=box, style=filled, fillcolor=lightblue];\n", id, label)
		case NodeProduct:
			fmt.Fprintf(&sb, "  %q [label=%q, shape=box, style=dashed];\n", id, label)
		default:
			fmt.Fprintf(&sb, "  %q [label=%q];\n", id, label)
		}
	}

	for _, id := range ids {
		children, err := g.dag.GetChildren(id)
		if err != nil {
			continue
		}

		targets := make([]string, 0, len(children))
		for child := range children {
			targets = append(targets, child)
		}
		sort.Strings(targets)

		for _, child := range targets {
			fmt.Fprintf(&sb, "  %q -> %q;\n", id, child)
		}
	}

	sb.WriteString("}")

	return sb.String()
}
