package generator

import (
	"fmt"
	"math/rand"

	"github.com/gilchrisn/busplan/pkg/models"
)

// Params describes a random instance
type Params struct {
	Name       string
	NumBuses   int
	BusSize    int
	NumKids    int
	NumFriends int // friendship attempts; self-loops and repeats are dropped
	NumRowdy   int
}

// Validate checks that an instance can be drawn from p
func (p Params) Validate() error {
	var errs models.ValidationErrors
	if p.NumKids <= 0 {
		errs = append(errs, models.ValidationError{Field: "num_kids", Message: "must be positive", Value: fmt.Sprint(p.NumKids)})
	}
	if p.NumFriends < 0 {
		errs = append(errs, models.ValidationError{Field: "num_friends", Message: "cannot be negative", Value: fmt.Sprint(p.NumFriends)})
	}
	if p.NumRowdy < 0 {
		errs = append(errs, models.ValidationError{Field: "num_rowdy", Message: "cannot be negative", Value: fmt.Sprint(p.NumRowdy)})
	}
	if p.NumRowdy > 0 && p.BusSize < 2 {
		errs = append(errs, models.ValidationError{Field: "bus_size", Message: "rowdy groups need a bus size of at least 2", Value: fmt.Sprint(p.BusSize)})
	}
	if err := (models.Capacity{NumBuses: p.NumBuses, BusSize: p.BusSize}).Validate(); err != nil {
		if verrs, ok := err.(models.ValidationErrors); ok {
			errs = append(errs, verrs...)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Generate draws a uniform random instance: NumFriends random friendship
// attempts between NumKids kids labelled "0".."n-1", then NumRowdy groups of
// between 1 and BusSize-1 distinct kids.
func Generate(p Params, rng *rand.Rand) (*models.Instance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g := models.NewGraph(p.NumKids)
	for i := 0; i < p.NumFriends; i++ {
		a := rng.Intn(p.NumKids)
		b := rng.Intn(p.NumKids)
		if a == b || g.HasEdge(a, b) {
			continue
		}
		if err := g.AddEdge(a, b); err != nil {
			return nil, err
		}
	}

	return &models.Instance{
		Name:        p.Name,
		Graph:       g,
		Capacity:    models.Capacity{NumBuses: p.NumBuses, BusSize: p.BusSize},
		RowdyGroups: rowdyGroups(p, rng),
	}, nil
}

// GeneratePlanted draws an instance whose friendships concentrate inside
// NumBuses planted groups: kids in the same group are friends with
// probability pIntra, others with probability pInter. NumFriends is ignored.
func GeneratePlanted(p Params, pIntra, pInter float64, rng *rand.Rand) (*models.Instance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g := models.NewGraph(p.NumKids)
	perGroup := (p.NumKids + p.NumBuses - 1) / p.NumBuses
	for i := 0; i < p.NumKids; i++ {
		for j := i + 1; j < p.NumKids; j++ {
			prob := pInter
			if i/perGroup == j/perGroup {
				prob = pIntra
			}
			if rng.Float64() < prob {
				if err := g.AddEdge(i, j); err != nil {
					return nil, err
				}
			}
		}
	}

	return &models.Instance{
		Name:        p.Name,
		Graph:       g,
		Capacity:    models.Capacity{NumBuses: p.NumBuses, BusSize: p.BusSize},
		RowdyGroups: rowdyGroups(p, rng),
	}, nil
}

func rowdyGroups(p Params, rng *rand.Rand) []models.RowdyGroup {
	groups := make([]models.RowdyGroup, 0, p.NumRowdy)
	for id := 0; id < p.NumRowdy; id++ {
		size := 1 + rng.Intn(p.BusSize-1)
		if size > p.NumKids {
			size = p.NumKids
		}
		members := models.NewNodeSet()
		for members.Cardinality() < size {
			members.Add(rng.Intn(p.NumKids))
		}
		groups = append(groups, models.RowdyGroup{ID: id, Members: members})
	}
	return groups
}
