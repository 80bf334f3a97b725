package combat

import (
	"math/rand/v2"
	"time"
)

// Rand is the uniform random source used by resolution and reward rolls.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// IntN returns a value in [0,n).
	IntN(n int) int
}

// NewRand returns a PCG-backed source. A zero seed derives one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Chance performs a Bernoulli trial with probability p.
func Chance(r Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}

// UniformInt draws uniformly from the inclusive range [min,max]. A reversed
// range is swapped.
func UniformInt(r Rand, min, max int) int {
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	return min + r.IntN(max-min+1)
}
