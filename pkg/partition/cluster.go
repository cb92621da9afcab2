package partition

import (
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/busplan/pkg/models"
)

// workingGraph is the subgraph induced by the nodes not yet placed in a
// cluster. It is owned by a single BuildClusters call.
type workingGraph struct {
	graph     *models.Graph
	alive     []bool
	remaining int
	mark      []int
	stamp     int
}

func newWorkingGraph(g *models.Graph) *workingGraph {
	w := &workingGraph{
		graph:     g,
		alive:     make([]bool, g.NumNodes),
		remaining: g.NumNodes,
		mark:      make([]int, g.NumNodes),
	}
	for i := range w.alive {
		w.alive[i] = true
	}
	return w
}

func (w *workingGraph) neighbors(node int) []int {
	var out []int
	for _, nb := range w.graph.Neighbors(node) {
		if w.alive[nb] {
			out = append(out, nb)
		}
	}
	return out
}

func (w *workingGraph) remove(nodes []int) {
	for _, n := range nodes {
		if w.alive[n] {
			w.alive[n] = false
			w.remaining--
		}
	}
}

// clustering computes the local clustering coefficient of every remaining
// node on the remaining graph. Removed nodes get 0.
func (w *workingGraph) clustering() []float64 {
	coef := make([]float64, w.graph.NumNodes)
	for u := 0; u < w.graph.NumNodes; u++ {
		if !w.alive[u] {
			continue
		}
		nbrs := w.neighbors(u)
		d := len(nbrs)
		if d < 2 {
			continue
		}

		w.stamp++
		for _, v := range nbrs {
			w.mark[v] = w.stamp
		}
		links := 0
		for _, a := range nbrs {
			for _, b := range w.graph.Neighbors(a) {
				if b > a && w.mark[b] == w.stamp {
					links++
				}
			}
		}
		coef[u] = 2.0 * float64(links) / float64(d*(d-1))
	}
	return coef
}

// BuildClusters partitions every node of g into clusters of at most
// maxClusterSize nodes. Each cluster grows from the remaining node with the
// highest clustering coefficient by repeatedly absorbing the frontier node
// with the most links into the cluster plus its own coefficient, skipping
// candidates that would complete a rowdy group.
//
// Seed ties go to the smallest node unless rng is non-nil, in which case a
// tied node is drawn uniformly.
func BuildClusters(g *models.Graph, maxClusterSize int, groups []models.RowdyGroup, rng *rand.Rand, logger zerolog.Logger) [][]int {
	if maxClusterSize < 1 {
		maxClusterSize = 1
	}

	work := newWorkingGraph(g)
	clusters := make([][]int, 0)

	for work.remaining > 0 {
		coef := work.clustering()
		seed := pickSeed(work, coef, rng)

		members := growCluster(work, seed, coef, maxClusterSize, groups)
		work.remove(members)
		clusters = append(clusters, members)

		logger.Debug().
			Str("seed", g.Label(seed)).
			Float64("coefficient", coef[seed]).
			Int("size", len(members)).
			Int("remaining", work.remaining).
			Msg("Cluster built")
	}

	logger.Info().
		Int("clusters", len(clusters)).
		Int("max_cluster_size", maxClusterSize).
		Msg("Cluster growth completed")

	return clusters
}

func pickSeed(work *workingGraph, coef []float64, rng *rand.Rand) int {
	best := -1
	var tied []int
	for u := 0; u < len(work.alive); u++ {
		if !work.alive[u] {
			continue
		}
		switch {
		case best < 0 || coef[u] > coef[best]:
			best = u
			tied = append(tied[:0], u)
		case coef[u] == coef[best]:
			tied = append(tied, u)
		}
	}
	if rng != nil && len(tied) > 1 {
		return tied[rng.Intn(len(tied))]
	}
	return best
}

func growCluster(work *workingGraph, seed int, coef []float64, maxSize int, groups []models.RowdyGroup) []int {
	cluster := models.NewNodeSet(seed)
	members := []int{seed}

	// frontier node -> number of neighbors inside the cluster
	frontier := make(map[int]int)
	for _, nb := range work.neighbors(seed) {
		frontier[nb] = 1
	}

	for len(frontier) > 0 && len(members) < maxSize {
		candidates := make([]int, 0, len(frontier))
		for node := range frontier {
			candidates = append(candidates, node)
		}
		sort.Slice(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			ra := float64(frontier[a]) + coef[a]
			rb := float64(frontier[b]) + coef[b]
			if ra != rb {
				return ra > rb
			}
			return a < b
		})

		chosen := -1
		for _, c := range candidates {
			if _, violated := IsViolatedWith(cluster, c, groups); !violated {
				chosen = c
				break
			}
		}
		if chosen < 0 {
			break
		}

		delete(frontier, chosen)
		cluster.Add(chosen)
		members = append(members, chosen)
		for _, nb := range work.neighbors(chosen) {
			if cluster.Contains(nb) {
				continue
			}
			frontier[nb]++
		}
	}

	return members
}
