package spaces

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Box is a closed n-dimensional interval. A dimension may be unbounded below
// (low -Inf) or above (high +Inf).
type Box struct {
	low  *mat.VecDense
	high *mat.VecDense
}

func NewBox(low []float64, high []float64) (*Box, error) {
	if len(low) == 0 || len(low) != len(high) {
		return nil, fmt.Errorf("%w: low has %d dims, high has %d", ErrInvalidBounds, len(low), len(high))
	}
	for i := range low {
		if math.IsNaN(low[i]) || math.IsNaN(high[i]) || math.IsInf(low[i], 1) || math.IsInf(high[i], -1) || low[i] > high[i] {
			return nil, fmt.Errorf("%w: dim %d [%v, %v]", ErrInvalidBounds, i, low[i], high[i])
		}
	}

	return &Box{
		low:  mat.NewVecDense(len(low), append([]float64(nil), low...)),
		high: mat.NewVecDense(len(high), append([]float64(nil), high...)),
	}, nil
}

// NewScalarBox is a one-dimensional Box.
func NewScalarBox(low float64, high float64) (*Box, error) {
	return NewBox([]float64{low}, []float64{high})
}

func (b *Box) Len() int {
	return b.low.Len()
}

func (b *Box) Low() *mat.VecDense {
	return mat.VecDenseCopyOf(b.low)
}

func (b *Box) High() *mat.VecDense {
	return mat.VecDenseCopyOf(b.high)
}

// Sample draws uniformly on bounded dimensions, from a standard normal on
// unbounded ones, and from a shifted exponential on half-bounded ones.
func (b *Box) Sample(rng *rand.Rand) interface{} {
	n := b.Len()
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		lo, hi := b.low.AtVec(i), b.high.AtVec(i)
		loBounded, hiBounded := !math.IsInf(lo, -1), !math.IsInf(hi, 1)

		var x float64
		switch {
		case loBounded && hiBounded:
			x = lo + rng.Float64()*(hi-lo)
		case loBounded:
			x = lo + rng.ExpFloat64()
		case hiBounded:
			x = hi - rng.ExpFloat64()
		default:
			x = rng.NormFloat64()
		}
		v.SetVec(i, x)
	}
	return v
}

func (b *Box) Contains(x interface{}) bool {
	v, ok := x.(*mat.VecDense)
	if !ok || v == nil || v.Len() != b.Len() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		e := v.AtVec(i)
		if math.IsNaN(e) || e < b.low.AtVec(i) || e > b.high.AtVec(i) {
			return false
		}
	}
	return true
}

// Clip returns a copy of v clamped into the box.
func (b *Box) Clip(v mat.Vector) *mat.VecDense {
	out := mat.NewVecDense(b.Len(), nil)
	for i := 0; i < b.Len(); i++ {
		e := 0.0
		if i < v.Len() {
			e = v.AtVec(i)
		}
		out.SetVec(i, math.Max(b.low.AtVec(i), math.Min(b.high.AtVec(i), e)))
	}
	return out
}

func (b *Box) String() string {
	lows := make([]string, b.Len())
	highs := make([]string, b.Len())
	for i := 0; i < b.Len(); i++ {
		lows[i] = fmt.Sprintf("%g", b.low.AtVec(i))
		highs[i] = fmt.Sprintf("%g", b.high.AtVec(i))
	}
	return fmt.Sprintf("Box([%s], [%s])", strings.Join(lows, " "), strings.Join(highs, " "))
}
