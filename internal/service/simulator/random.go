package simulator

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RandomSource supplies every probabilistic draw a fill algorithm makes.
type RandomSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a concurrency safe generator. A zero seed is
// replaced by the current time.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func uniform(rng RandomSource, min, max float64) float64 {
	return min + (max-min)*rng.Float64()
}

// uniformDuration draws a whole number of milliseconds in [min, max].
func uniformDuration(rng RandomSource, min, max time.Duration) time.Duration {
	minMs := min.Milliseconds()
	maxMs := max.Milliseconds()
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}

	return time.Duration(minMs+int64(rng.IntN(int(maxMs-minMs)+1))) * time.Millisecond
}
