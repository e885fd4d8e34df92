package dice

import (
	"math/rand"
	"sync"
)

// seededSource implements Source using a seeded math/rand generator, guarded
// by a mutex so one stream can be shared across goroutines.
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a Source producing the same roll sequence for the
// same seed. Used for battle replay and for deterministic tests.
func NewSeededSource(seed int64) Source {
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random int in [0, n) from the seeded stream.
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
