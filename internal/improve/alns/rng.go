package alns

import "math/rand/v2"

// RNG is the minimal surface ALNS needs from a pseudo-random source,
// narrow enough that tests can inject a fixed, fully-deterministic
// sequence (per §5's "neighbor enumeration and operator selection must
// be deterministic given a seed").
type RNG interface {
	NextU64() uint64
	IntN(n int) int
}

// seededRNG wraps math/rand/v2's generator behind RNG.
type seededRNG struct {
	r *rand.Rand
}

// NewSeededRNG returns an RNG seeded deterministically from seed.
func NewSeededRNG(seed int64) RNG {
	return &seededRNG{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9E3779B97F4A7C15))}
}

func (s *seededRNG) NextU64() uint64 {
	return s.r.Uint64()
}

func (s *seededRNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}
