package partition_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/busplan/pkg/models"
	"github.com/gilchrisn/busplan/pkg/partition"
)

func buildGraph(t *testing.T, n int, edges [][2]int) *models.Graph {
	t.Helper()
	g := models.NewGraph(n)
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

// cycle4 is 0-1-2-3-0.
func cycle4(t *testing.T) *models.Graph {
	return buildGraph(t, 4, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
}

// barbell is two triangles joined by the bridge 2-3.
func barbell(t *testing.T) *models.Graph {
	return buildGraph(t, 6, [][2]int{{0, 1}, {1, 2}, {2, 0}, {3, 4}, {4, 5}, {5, 3}, {2, 3}})
}

func quietConfig(seed int64) *partition.Config {
	config := partition.NewConfig()
	config.Set("logging.level", "disabled")
	config.Set("algorithm.random_seed", seed)
	return config
}

// sortBuses orders labelled buses by their first label.
func sortBuses(buses [][]string) [][]string {
	sort.Slice(buses, func(i, j int) bool {
		if len(buses[i]) == 0 || len(buses[j]) == 0 {
			return len(buses[i]) < len(buses[j])
		}
		return buses[i][0] < buses[j][0]
	})
	return buses
}
