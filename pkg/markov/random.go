package markov

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is the random source used for sampling. Implementations must be safe
// for concurrent use; one source is shared by every sampling call.
type Rand interface {
	// IntN returns a uniform value in [0, n). n is always > 0.
	IntN(n int) int
}

// Source is a mutex-guarded PCG generator.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a Source seeded with seed. A zero seed picks one from the clock.
func NewSource(seed uint64) *Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN implements Rand.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
