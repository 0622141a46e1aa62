package utils

import (
	"math/rand/v2"
	"sync"
)

// LockedRand is a goroutine-safe PCG source. It satisfies types.Rand.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand seeds a LockedRand. A zero seed picks a random one.
func NewLockedRand(seed uint64) *LockedRand {
	hi, lo := seed, seed
	if seed == 0 {
		hi, lo = rand.Uint64(), rand.Uint64()
	}
	return &LockedRand{r: rand.New(rand.NewPCG(hi, lo))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
