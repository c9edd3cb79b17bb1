package simulator

import (
	"context"
	"sync"
	"time"
)

// ManualClock never blocks. Sleep advances the clock by the requested
// duration and records it.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

func (c *ManualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// ScriptedSource replays fixed draws in order. Once a queue runs dry it
// returns 0.
type ScriptedSource struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

func NewScriptedSource(floats []float64, ints []int) *ScriptedSource {
	return &ScriptedSource{
		floats: append([]float64(nil), floats...),
		ints:   append([]int(nil), ints...),
	}
}

func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *ScriptedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

// Remaining reports how many scripted draws were not consumed.
func (s *ScriptedSource) Remaining() (floats, ints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.floats), len(s.ints)
}
