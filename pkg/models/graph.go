package models

import (
	"fmt"
	"sort"
	"strconv"
)

// Graph represents an unweighted undirected graph over dense node indices.
// Each node also carries the external label it was loaded with.
type Graph struct {
	NumNodes  int      `json:"num_nodes"`
	NumEdges  int      `json:"num_edges"`
	Labels    []string `json:"labels"`
	Adjacency [][]int  `json:"-"` // adjacency[i] = sorted neighbors of node i

	index map[string]int
}

// NewGraph creates a graph with n nodes labelled "0".."n-1"
func NewGraph(numNodes int) *Graph {
	g := &Graph{
		Labels:    make([]string, 0, numNodes),
		Adjacency: make([][]int, 0, numNodes),
		index:     make(map[string]int, numNodes),
	}
	for i := 0; i < numNodes; i++ {
		g.AddNode(strconv.Itoa(i))
	}
	return g
}

// NewLabeledGraph creates a graph whose nodes carry the given labels, in order
func NewLabeledGraph(labels []string) (*Graph, error) {
	g := &Graph{
		Labels:    make([]string, 0, len(labels)),
		Adjacency: make([][]int, 0, len(labels)),
		index:     make(map[string]int, len(labels)),
	}
	for _, label := range labels {
		if _, exists := g.index[label]; exists {
			return nil, fmt.Errorf("duplicate node label %q", label)
		}
		g.AddNode(label)
	}
	return g, nil
}

// AddNode adds a node and returns its index. Adding an existing label
// returns the index it already has.
func (g *Graph) AddNode(label string) int {
	if g.index == nil {
		g.index = make(map[string]int)
	}
	if idx, exists := g.index[label]; exists {
		return idx
	}
	idx := g.NumNodes
	g.index[label] = idx
	g.Labels = append(g.Labels, label)
	g.Adjacency = append(g.Adjacency, nil)
	g.NumNodes++
	return idx
}

// AddEdge adds an undirected edge between two distinct nodes
func (g *Graph) AddEdge(u, v int) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return fmt.Errorf("node index out of range: u=%d, v=%d, numNodes=%d", u, v, g.NumNodes)
	}
	if u == v {
		return fmt.Errorf("self-loop on node %d is not allowed", u)
	}
	if g.HasEdge(u, v) {
		return fmt.Errorf("duplicate edge %d-%d", u, v)
	}

	g.Adjacency[u] = insertSorted(g.Adjacency[u], v)
	g.Adjacency[v] = insertSorted(g.Adjacency[v], u)
	g.NumEdges++
	return nil
}

// RemoveEdge deletes the edge u-v if present and reports whether it existed
func (g *Graph) RemoveEdge(u, v int) bool {
	if !g.HasEdge(u, v) {
		return false
	}
	g.Adjacency[u] = removeSorted(g.Adjacency[u], v)
	g.Adjacency[v] = removeSorted(g.Adjacency[v], u)
	g.NumEdges--
	return true
}

// HasEdge reports whether u and v are adjacent
func (g *Graph) HasEdge(u, v int) bool {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return false
	}
	nbrs := g.Adjacency[u]
	i := sort.SearchInts(nbrs, v)
	return i < len(nbrs) && nbrs[i] == v
}

// Neighbors returns the sorted neighbors of a node. The slice must not be modified.
func (g *Graph) Neighbors(node int) []int {
	if node < 0 || node >= g.NumNodes {
		return nil
	}
	return g.Adjacency[node]
}

// Degree returns the number of neighbors of a node
func (g *Graph) Degree(node int) int {
	return len(g.Neighbors(node))
}

// IndexOf returns the index of the node with the given label
func (g *Graph) IndexOf(label string) (int, bool) {
	idx, ok := g.index[label]
	return idx, ok
}

// Label returns the external label of a node
func (g *Graph) Label(node int) string {
	if node < 0 || node >= g.NumNodes {
		return ""
	}
	return g.Labels[node]
}

// Edges returns every edge once as an ordered pair (u < v)
func (g *Graph) Edges() [][2]int {
	edges := make([][2]int, 0, g.NumEdges)
	for u := 0; u < g.NumNodes; u++ {
		for _, v := range g.Adjacency[u] {
			if u < v {
				edges = append(edges, [2]int{u, v})
			}
		}
	}
	return edges
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		NumNodes:  g.NumNodes,
		NumEdges:  g.NumEdges,
		Labels:    make([]string, g.NumNodes),
		Adjacency: make([][]int, g.NumNodes),
		index:     make(map[string]int, g.NumNodes),
	}
	copy(clone.Labels, g.Labels)
	for i := 0; i < g.NumNodes; i++ {
		clone.Adjacency[i] = make([]int, len(g.Adjacency[i]))
		copy(clone.Adjacency[i], g.Adjacency[i])
	}
	for label, idx := range g.index {
		clone.index[label] = idx
	}
	return clone
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if g.NumNodes <= 0 {
		return ValidationError{Field: "nodes", Message: "graph must have positive number of nodes"}
	}
	if len(g.Labels) != g.NumNodes || len(g.Adjacency) != g.NumNodes {
		return ValidationError{Field: "nodes", Message: "labels and adjacency arrays inconsistent with node count"}
	}

	var errs ValidationErrors
	halfEdges := 0
	for i := 0; i < g.NumNodes; i++ {
		for j, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				errs = append(errs, ValidationError{
					Field:   "adjacency",
					Message: fmt.Sprintf("invalid neighbor %d for node %d", neighbor, i),
				})
				continue
			}
			if neighbor == i {
				errs = append(errs, ValidationError{Field: "adjacency", Message: "self-loop", Value: g.Labels[i]})
			}
			if j > 0 && g.Adjacency[i][j-1] >= neighbor {
				errs = append(errs, ValidationError{Field: "adjacency", Message: "neighbors not sorted or duplicated", Value: g.Labels[i]})
			}
			if !g.HasEdge(neighbor, i) {
				errs = append(errs, ValidationError{
					Field:   "adjacency",
					Message: fmt.Sprintf("asymmetric edge %d-%d", i, neighbor),
				})
			}
			halfEdges++
		}
	}
	if halfEdges != 2*g.NumEdges {
		errs = append(errs, ValidationError{
			Field:   "num_edges",
			Message: fmt.Sprintf("edge count %d does not match adjacency (%d)", g.NumEdges, halfEdges/2),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	if i < len(s) && s[i] == v {
		return append(s[:i], s[i+1:]...)
	}
	return s
}
