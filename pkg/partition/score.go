package partition

import (
	"github.com/gilchrisn/busplan/pkg/models"
)

// ScoreFunc evaluates a complete partition; higher is better
type ScoreFunc func(p models.Partition) float64

// Score returns the fraction of graph edges kept inside a bus. Members of
// any rowdy group that rides a single bus are excluded, so none of their
// edges count. A graph without edges scores 0.
func Score(p models.Partition, g *models.Graph, groups []models.RowdyGroup) float64 {
	if g.NumEdges == 0 {
		return 0.0
	}

	assign := p.Assignment(g.NumNodes)
	excluded := make([]bool, g.NumNodes)
	for _, rg := range groups {
		if !sameBus(rg, assign) {
			continue
		}
		rg.Members.Each(func(m int) bool {
			excluded[m] = true
			return false
		})
	}

	kept := 0
	for u := 0; u < g.NumNodes; u++ {
		if assign[u] < 0 || excluded[u] {
			continue
		}
		for _, v := range g.Neighbors(u) {
			if u < v && assign[v] == assign[u] && !excluded[v] {
				kept++
			}
		}
	}

	return float64(kept) / float64(g.NumEdges)
}

// NewScorer binds Score to a graph and its rowdy groups
func NewScorer(g *models.Graph, groups []models.RowdyGroup) ScoreFunc {
	return func(p models.Partition) float64 {
		return Score(p, g, groups)
	}
}

// sameBus reports whether every member of rg is assigned to one bus
func sameBus(rg models.RowdyGroup, assign []int) bool {
	if rg.Size() == 0 {
		return false
	}
	bus := -2
	together := true
	rg.Members.Each(func(m int) bool {
		if m < 0 || m >= len(assign) || assign[m] < 0 {
			together = false
			return true
		}
		if bus == -2 {
			bus = assign[m]
		} else if assign[m] != bus {
			together = false
			return true
		}
		return false
	})
	return together
}
