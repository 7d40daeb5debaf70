package shared

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource is an abstraction over the process-wide pseudo-random
// generator, allowing tests to supply deterministic seeds
type RandSource interface {
	Float64() float64
	NormFloat64() float64
	ExpFloat64() float64
}

// LockedRand implements RandSource with a mutex so it is safe to call from
// every connection goroutine. Seeded once at startup.
type LockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRand creates a RandSource seeded with the given seed
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{rng: rand.New(rand.NewSource(seed))}
}

// NewDefaultRand creates the process-wide RandSource seeded from the clock
func NewDefaultRand() *LockedRand {
	return NewLockedRand(time.Now().UnixNano())
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *LockedRand) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.NormFloat64()
}

func (r *LockedRand) ExpFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.ExpFloat64()
}
