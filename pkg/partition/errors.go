package partition

import "errors"

var (
	// ErrInfeasibleCapacity is returned before any construction work when
	// there are more buses than nodes.
	ErrInfeasibleCapacity = errors.New("partition: infeasible capacity")

	// ErrUnbalanceable is returned when an over-capacity bus cannot be
	// relieved because no other bus has a free seat. It accompanies a
	// partial partition.
	ErrUnbalanceable = errors.New("partition: unbalanceable state")
)
