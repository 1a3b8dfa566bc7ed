package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNGIsDeterministicPerSeed(t *testing.T) {
	a, b := NewRNG(SeedState("seed-1")), NewRNG(SeedState("seed-1"))
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
	assert.NotEqual(t, SeedState("seed-1"), SeedState("seed-2"))
}

func TestRNGResumesFromState(t *testing.T) {
	r := NewRNG(SeedState("resume"))
	r.Uint64()
	resumed := NewRNG(r.State())
	assert.Equal(t, r.Uint64(), resumed.Uint64())
}

func TestShuffleIsAPermutation(t *testing.T) {
	r := NewRNG(SeedState("shuffle"))
	xs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	r.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, xs)
}

func TestIntnRange(t *testing.T) {
	r := NewRNG(1)
	for i := 0; i < 1000; i++ {
		v := r.Intn(3)
		assert.True(t, v >= 0 && v < 3)
	}
	assert.Panics(t, func() { r.Intn(0) })
}
