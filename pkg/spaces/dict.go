package spaces

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Dict is a product of named subspaces. Its elements are map[string]interface{}.
type Dict struct {
	spaces map[string]Space
	keys   []string
}

func NewDict(spaces map[string]Space) *Dict {
	d := &Dict{
		spaces: make(map[string]Space, len(spaces)),
		keys:   make([]string, 0, len(spaces)),
	}
	for k, s := range spaces {
		d.spaces[k] = s
		d.keys = append(d.keys, k)
	}
	sort.Strings(d.keys)
	return d
}

// Keys returns the subspace names in sorted order.
func (d *Dict) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d *Dict) Get(key string) Space {
	return d.spaces[key]
}

// Sample draws each member in key order so a seeded rng is reproducible.
func (d *Dict) Sample(rng *rand.Rand) interface{} {
	out := make(map[string]interface{}, len(d.keys))
	for _, k := range d.keys {
		out[k] = d.spaces[k].Sample(rng)
	}
	return out
}

func (d *Dict) Contains(x interface{}) bool {
	m, ok := x.(map[string]interface{})
	if !ok || len(m) != len(d.keys) {
		return false
	}
	for _, k := range d.keys {
		v, ok := m[k]
		if !ok || !d.spaces[k].Contains(v) {
			return false
		}
	}
	return true
}

func (d *Dict) String() string {
	parts := make([]string, len(d.keys))
	for i, k := range d.keys {
		parts[i] = fmt.Sprintf("%s: %s", k, d.spaces[k])
	}
	return fmt.Sprintf("Dict(%s)", strings.Join(parts, ", "))
}
