package models

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Gonum converts the graph to a gonum undirected graph. Gonum node IDs
// equal the dense node indices.
func (g *Graph) Gonum() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := 0; i < g.NumNodes; i++ {
		ug.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges() {
		ug.SetEdge(simple.Edge{F: simple.Node(int64(e[0])), T: simple.Node(int64(e[1]))})
	}
	return ug
}

// ConnectedComponents returns the connected components of the graph. Each
// component is sorted, and components are ordered by their smallest node.
func (g *Graph) ConnectedComponents() [][]int {
	return componentsOf(g.Gonum())
}

// Modularity computes Newman's modularity of the partition on this graph.
// Empty buses are ignored.
func (g *Graph) Modularity(p Partition) float64 {
	if g.NumEdges == 0 {
		return 0.0
	}
	ug := g.Gonum()
	communities := make([][]graph.Node, 0, len(p))
	for _, bus := range p {
		if len(bus) == 0 {
			continue
		}
		nodes := make([]graph.Node, len(bus))
		for i, n := range bus {
			nodes[i] = simple.Node(int64(n))
		}
		communities = append(communities, nodes)
	}
	return community.Q(ug, communities, 1.0)
}

func componentsOf(ug graph.Undirected) [][]int {
	raw := topo.ConnectedComponents(ug)
	components := make([][]int, len(raw))
	for i, cc := range raw {
		nodes := make([]int, len(cc))
		for j, n := range cc {
			nodes[j] = int(n.ID())
		}
		sort.Ints(nodes)
		components[i] = nodes
	}
	sort.Slice(components, func(a, b int) bool {
		return components[a][0] < components[b][0]
	})
	return components
}
