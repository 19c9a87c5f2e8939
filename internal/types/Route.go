/*

This file contains the swap route type used by the strategy when settling
fees through the external router.

*/

package types

import (
	"errors"
	"fmt"
	"strings"
)

// Route is an ordered list of token denoms describing a swap path. The first
// entry is the input denom and the last entry is the output denom; every
// adjacent pair must correspond to a pool on the external router.
type Route []string

var (
	ErrRouteTooShort     = errors.New("route must contain at least two denoms")
	ErrRouteEmptyDenom   = errors.New("route contains an empty denom")
	ErrRouteEndpoints    = errors.New("route endpoints do not match expected denoms")
	ErrRouteRepeatedHop  = errors.New("route repeats the same denom in adjacent hops")
)

// Validate checks the route is well formed and runs from `from` to `to`.
func (r Route) Validate(from, to string) error {
	if len(r) < 2 {
		return ErrRouteTooShort
	}
	for i, denom := range r {
		if denom == "" {
			return fmt.Errorf("%w: position %d", ErrRouteEmptyDenom, i)
		}
		if i > 0 && r[i-1] == denom {
			return fmt.Errorf("%w: position %d (%s)", ErrRouteRepeatedHop, i, denom)
		}
	}
	if r[0] != from || r[len(r)-1] != to {
		return fmt.Errorf("%w: got %s -> %s, want %s -> %s",
			ErrRouteEndpoints, r[0], r[len(r)-1], from, to)
	}
	return nil
}

// In returns the input denom of the route.
func (r Route) In() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Out returns the output denom of the route.
func (r Route) Out() string {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1]
}

func (r Route) String() string {
	return strings.Join(r, " -> ")
}
