package infrastructure

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// jitterSource guards a rand.Rand shared by reconnect callbacks.
type jitterSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newJitterSource() *jitterSource {
	return &jitterSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (j *jitterSource) Int63n(n int64) int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rng.Int63n(n)
}

type int63nSource interface {
	Int63n(n int64) int64
}

func backoffWithJitter(attempt int, factor float64, min, max time.Duration, rng int63nSource) time.Duration {
	backoff := float64(min) * math.Pow(factor, float64(attempt))
	if backoff > float64(max) {
		backoff = float64(max)
	}

	base := time.Duration(backoff)
	if max <= min {
		return base
	}

	jitterWindow := max - min
	jitter := time.Duration(rng.Int63n(int64(jitterWindow) + 1))
	result := base + jitter
	if result > max {
		return max
	}

	return result
}
