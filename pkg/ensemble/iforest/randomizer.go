package iforest

import (
	"math/rand"
	"time"
)

// Randomizer is the source of randomness used to grow trees. *rand.Rand implements it.
type Randomizer interface {
	Intn(n int) int
	Int63() int64
	Float64() float64
	Perm(n int) []int
}

// NewRandomizer returns a deterministic randomizer for the seed. A zero seed picks a time based one.
func NewRandomizer(seed int64) Randomizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// deriveRandomizers seeds one independent randomizer per tree from the master,
// so the trees of a forest are reproducible no matter how the builds are scheduled.
func deriveRandomizers(master Randomizer, n int) []Randomizer {
	randomizers := make([]Randomizer, n)
	for i := range randomizers {
		randomizers[i] = rand.New(rand.NewSource(master.Int63()))
	}
	return randomizers
}
