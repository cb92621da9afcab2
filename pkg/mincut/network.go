package mincut

import (
	"sort"

	"github.com/gilchrisn/busplan/pkg/models"
)

// network is a unit-capacity flow network over one component, using local
// indices 0..size-1. Each undirected edge carries capacity 1 both ways.
type network struct {
	size  int
	nodes []int   // local -> graph index
	adj   [][]int // local adjacency
	res   []map[int]int
}

func newNetwork(g *models.Graph, component []int) *network {
	local := make(map[int]int, len(component))
	for i, n := range component {
		local[n] = i
	}

	net := &network{
		size:  len(component),
		nodes: component,
		adj:   make([][]int, len(component)),
		res:   make([]map[int]int, len(component)),
	}
	for i, n := range component {
		for _, nb := range g.Neighbors(n) {
			if j, ok := local[nb]; ok {
				net.adj[i] = append(net.adj[i], j)
			}
		}
	}
	net.reset()
	return net
}

func (n *network) reset() {
	for u := 0; u < n.size; u++ {
		n.res[u] = make(map[int]int, len(n.adj[u]))
		for _, v := range n.adj[u] {
			n.res[u][v] = 1
		}
	}
}

// maxFlow runs Edmonds–Karp from source to sink. When limit is
// non-negative the search stops once the flow reaches it, since such a
// cut can no longer beat the best one.
func (n *network) maxFlow(source, sink, limit int) int {
	n.reset()
	flow := 0
	for limit < 0 || flow < limit {
		path := n.augmentingPath(source, sink)
		if path == nil {
			break
		}
		// unit capacities: every augmenting path carries exactly 1
		for i := 0; i < len(path)-1; i++ {
			u, v := path[i], path[i+1]
			n.res[u][v]--
			n.res[v][u]++
		}
		flow++
	}
	return flow
}

// augmentingPath finds the shortest source→sink path with spare capacity
func (n *network) augmentingPath(source, sink int) []int {
	parent := make([]int, n.size)
	for i := range parent {
		parent[i] = -1
	}
	parent[source] = source

	queue := []int{source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range n.adj[u] {
			if parent[v] != -1 || n.res[u][v] <= 0 {
				continue
			}
			parent[v] = u
			if v == sink {
				path := []int{sink}
				for cur := sink; cur != source; {
					cur = parent[cur]
					path = append([]int{cur}, path...)
				}
				return path
			}
			queue = append(queue, v)
		}
	}
	return nil
}

// reachable marks nodes reachable from source in the residual graph
func (n *network) reachable(source int) []bool {
	seen := make([]bool, n.size)
	seen[source] = true
	queue := []int{source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range n.adj[u] {
			if !seen[v] && n.res[u][v] > 0 {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}
	return seen
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
}
