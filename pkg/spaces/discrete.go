package spaces

import (
	"fmt"
	"math/rand"
)

// Discrete is the integer set {Start, ..., Start+N-1}.
type Discrete struct {
	N     int
	Start int
}

func NewDiscrete(n int, start int) (*Discrete, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: discrete space needs n > 0, got %d", ErrInvalidBounds, n)
	}
	return &Discrete{N: n, Start: start}, nil
}

func (d *Discrete) Sample(rng *rand.Rand) interface{} {
	return d.Start + rng.Intn(d.N)
}

func (d *Discrete) Contains(x interface{}) bool {
	i, ok := x.(int)
	return ok && i >= d.Start && i < d.Start+d.N
}

func (d *Discrete) String() string {
	if d.Start == 0 {
		return fmt.Sprintf("Discrete(%d)", d.N)
	}
	return fmt.Sprintf("Discrete(%d, start=%d)", d.N, d.Start)
}
