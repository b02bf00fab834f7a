package synthetic

import (
	"fmt"
	"math/rand"

	"github.com/c9s/isoforest/pkg/ensemble/iforest"
)

// DefaultFeatureNames are used when a generator is created without names.
var DefaultFeatureNames = []string{"x", "y"}

// Generator produces samples with random feature values from a seeded source.
type Generator struct {
	names []string
	rnd   *rand.Rand
}

func NewGenerator(seed int64, names ...string) *Generator {
	if len(names) == 0 {
		names = DefaultFeatureNames
	}
	return &Generator{names: names, rnd: rand.New(rand.NewSource(seed))}
}

// Uniform draws every feature uniformly from [min, max).
func (g *Generator) Uniform(prefix string, n int, min, max float64) []*iforest.Sample {
	return g.generate(prefix, n, func(int) float64 {
		return min + g.rnd.Float64()*(max-min)
	})
}

// Gaussian draws feature i from a normal distribution around center[i].
// Missing centers default to zero.
func (g *Generator) Gaussian(prefix string, n int, center []float64, stddev float64) []*iforest.Sample {
	return g.generate(prefix, n, func(i int) float64 {
		mean := 0.0
		if i < len(center) {
			mean = center[i]
		}
		return mean + g.rnd.NormFloat64()*stddev
	})
}

// Grid draws integer steps scaled by step, i.e. step * U{0, ..., steps-1}, plus offset.
func (g *Generator) Grid(prefix string, n int, offset, step float64, steps int) []*iforest.Sample {
	return g.generate(prefix, n, func(int) float64 {
		return offset + step*float64(g.rnd.Intn(steps))
	})
}

func (g *Generator) generate(prefix string, n int, value func(i int) float64) []*iforest.Sample {
	samples := make([]*iforest.Sample, n)
	for i := range samples {
		features := make([]iforest.Feature, len(g.names))
		for j, name := range g.names {
			features[j] = iforest.NewFeature(name, value(j))
		}
		samples[i] = iforest.MustNewSample(fmt.Sprintf("%s-%d", prefix, i), features...)
	}
	return samples
}
