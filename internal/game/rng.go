package game

import "hash/fnv"

// RNG is a splitmix64 generator. Its whole state is one word, which the
// engine keeps in GameState.RNGState and journals whenever it advances.
type RNG struct {
	state uint64
}

// SeedState derives the initial generator state from a seed string.
func SeedState(seed string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return h.Sum64()
}

// NewRNG resumes a generator from a saved state.
func NewRNG(state uint64) *RNG {
	return &RNG{state: state}
}

// State returns the current generator state.
func (r *RNG) State() uint64 { return r.state }

// Uint64 returns the next value.
func (r *RNG) Uint64() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with non-positive n")
	}
	return int(r.Uint64() % uint64(n))
}

// Shuffle permutes n elements with Fisher-Yates.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, r.Intn(i+1))
	}
}

// Chooser picks an index in [0, n) among n candidates. Deck search and
// random target picks go through it so tests can force a choice.
type Chooser func(r *RNG, n int) int

// RandomChooser is the default Chooser.
func RandomChooser(r *RNG, n int) int {
	return r.Intn(n)
}
