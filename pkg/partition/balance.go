package partition

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/busplan/pkg/models"
)

// Balancer turns an arbitrary list of clusters into exactly NumBuses buses
// of at most BusSize nodes
type Balancer struct {
	graph    *models.Graph
	groups   []models.RowdyGroup
	capacity models.Capacity
	score    ScoreFunc
	logger   zerolog.Logger
}

// NewBalancer creates a balancer. A nil score defaults to Score on g.
func NewBalancer(g *models.Graph, groups []models.RowdyGroup, capacity models.Capacity, score ScoreFunc, logger zerolog.Logger) *Balancer {
	if score == nil {
		score = NewScorer(g, groups)
	}
	return &Balancer{
		graph:    g,
		groups:   groups,
		capacity: capacity,
		score:    score,
		logger:   logger,
	}
}

// Reconcile assigns clusters to buses and repairs over-capacity buses.
// When a bus cannot be relieved the partial partition is returned together
// with ErrUnbalanceable.
func (b *Balancer) Reconcile(clusters [][]int) (models.Partition, error) {
	numBuses := b.capacity.NumBuses

	sorted := make([][]int, 0, len(clusters))
	for _, c := range clusters {
		if len(c) == 0 {
			continue
		}
		cp := make([]int, len(c))
		copy(cp, c)
		sorted = append(sorted, cp)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	var buses models.Partition
	switch {
	case len(sorted) > numBuses:
		b.logger.Debug().Int("clusters", len(sorted)).Int("buses", numBuses).Msg("Merging surplus clusters")
		buses = b.mergeSurplus(sorted)
	case len(sorted) < numBuses:
		b.logger.Debug().Int("clusters", len(sorted)).Int("buses", numBuses).Msg("Splitting clusters")
		var err error
		buses, err = b.splitShortfall(sorted)
		if err != nil {
			return nil, err
		}
	default:
		buses = make(models.Partition, numBuses)
		for i, c := range sorted {
			buses[i] = models.Bus(c)
		}
	}

	if err := b.fillEmpty(buses); err != nil {
		return nil, err
	}
	if err := b.repair(buses); err != nil {
		return buses, err
	}
	return buses, nil
}

// mergeSurplus keeps the first NumBuses-1 clusters as buses and packs the
// rest into the fleet: first where they fit without completing a rowdy
// group, then where they fit at all, then node by node.
func (b *Balancer) mergeSurplus(clusters [][]int) models.Partition {
	numBuses, busSize := b.capacity.NumBuses, b.capacity.BusSize
	buses := make(models.Partition, numBuses)
	for i := 0; i < numBuses-1; i++ {
		buses[i] = models.Bus(clusters[i])
	}
	buses[numBuses-1] = models.Bus{}

	for _, c := range clusters[numBuses-1:] {
		target := -1
		for j, bus := range buses {
			if len(bus)+len(c) > busSize {
				continue
			}
			if _, violated := IsViolated(unionOf(bus, c), b.groups); !violated {
				target = j
				break
			}
		}
		if target < 0 {
			for j, bus := range buses {
				if len(bus)+len(c) <= busSize {
					target = j
					break
				}
			}
		}
		if target >= 0 {
			buses[target] = append(buses[target], c...)
			continue
		}

		rest := c
		for j := range buses {
			for len(rest) > 0 && len(buses[j]) < busSize {
				buses[j] = append(buses[j], rest[0])
				rest = rest[1:]
			}
		}
		if len(rest) > 0 {
			// out of seats; repair will report the overflow
			smallest := 0
			for j := range buses {
				if len(buses[j]) < len(buses[smallest]) {
					smallest = j
				}
			}
			buses[smallest] = append(buses[smallest], rest...)
		}
	}
	return buses
}

// splitShortfall peels the loneliest node off the largest multi-node
// cluster until there is one cluster per bus
func (b *Balancer) splitShortfall(clusters [][]int) (models.Partition, error) {
	buses := make(models.Partition, len(clusters), b.capacity.NumBuses)
	for i, c := range clusters {
		buses[i] = models.Bus(c)
	}
	for len(buses) < b.capacity.NumBuses {
		node, ok := b.evictLoneliest(buses)
		if !ok {
			return nil, fmt.Errorf("%w: %d nodes cannot fill %d buses", ErrInfeasibleCapacity, b.graph.NumNodes, b.capacity.NumBuses)
		}
		buses = append(buses, models.Bus{node})
	}
	return buses, nil
}

// fillEmpty gives every empty bus the loneliest node of the largest bus
func (b *Balancer) fillEmpty(buses models.Partition) error {
	for i := range buses {
		if len(buses[i]) > 0 {
			continue
		}
		node, ok := b.evictLoneliest(buses)
		if !ok {
			return fmt.Errorf("%w: bus %d cannot be filled", ErrInfeasibleCapacity, i)
		}
		buses[i] = models.Bus{node}
	}
	return nil
}

// evictLoneliest removes and returns the lowest-internal-degree node of the
// largest bus holding more than one node
func (b *Balancer) evictLoneliest(buses models.Partition) (int, bool) {
	source := -1
	for i, bus := range buses {
		if len(bus) > 1 && (source < 0 || len(bus) > len(buses[source])) {
			source = i
		}
	}
	if source < 0 {
		return 0, false
	}
	pos := b.loneliest(buses[source])
	node := buses[source][pos]
	buses[source] = removeAt(buses[source], pos)
	return node, true
}

// repair moves nodes out of over-capacity buses into the bus that scores
// best after the move
func (b *Balancer) repair(buses models.Partition) error {
	busSize := b.capacity.BusSize
	for {
		over := -1
		for i, bus := range buses {
			if len(bus) > busSize {
				over = i
				break
			}
		}
		if over < 0 {
			return nil
		}

		pos := b.loneliest(buses[over])
		node := buses[over][pos]
		buses[over] = removeAt(buses[over], pos)

		target := -1
		bestScore := 0.0
		for j := range buses {
			if j == over || len(buses[j]) >= busSize {
				continue
			}
			buses[j] = append(buses[j], node)
			s := b.score(buses)
			buses[j] = buses[j][:len(buses[j])-1]
			if target < 0 || s > bestScore {
				target = j
				bestScore = s
			}
		}

		if target < 0 {
			buses[over] = append(buses[over], node)
			b.logger.Warn().Int("bus", over).Int("size", len(buses[over])).Msg("No spare capacity to relieve bus")
			return fmt.Errorf("%w: bus %d holds %d nodes, capacity %d", ErrUnbalanceable, over, len(buses[over]), busSize)
		}

		buses[target] = append(buses[target], node)
		b.logger.Debug().
			Str("node", b.graph.Label(node)).
			Int("from", over).
			Int("to", target).
			Float64("score", bestScore).
			Msg("Relieved over-capacity bus")
	}
}

// loneliest returns the position in bus of the node with the fewest
// neighbors on the same bus; ties go to the smallest node
func (b *Balancer) loneliest(bus models.Bus) int {
	members := models.NewNodeSet(bus...)
	best, bestDeg := -1, 0
	for i, node := range bus {
		deg := 0
		for _, nb := range b.graph.Neighbors(node) {
			if members.Contains(nb) {
				deg++
			}
		}
		if best < 0 || deg < bestDeg || (deg == bestDeg && node < bus[best]) {
			best, bestDeg = i, deg
		}
	}
	return best
}

func removeAt(bus models.Bus, pos int) models.Bus {
	out := make(models.Bus, 0, len(bus)-1)
	out = append(out, bus[:pos]...)
	return append(out, bus[pos+1:]...)
}
