package runner

import (
	"math/rand"

	"github.com/spiceai/plasmagym/pkg/spaces"
)

// Policy chooses the next action from the latest observation.
type Policy interface {
	Act(observation interface{}) (interface{}, error)
}

// RandomPolicy samples uniformly from an action space.
type RandomPolicy struct {
	space spaces.Space
	rng   *rand.Rand
}

func NewRandomPolicy(space spaces.Space, seed int64) *RandomPolicy {
	return &RandomPolicy{
		space: space,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (p *RandomPolicy) Act(observation interface{}) (interface{}, error) {
	return p.space.Sample(p.rng), nil
}
