// Package spaces describes the sets that actions and observations are drawn from.
package spaces

import (
	"errors"
	"math/rand"
)

var (
	ErrInvalidBounds = errors.New("invalid space bounds")
)

// Space is a set of valid actions or observations.
type Space interface {
	// Sample draws a random element of the space using rng.
	Sample(rng *rand.Rand) interface{}
	// Contains reports whether x is a member of the space.
	Contains(x interface{}) bool
	String() string
}
