package iforest

import (
	"math"
)

// SampleRows randomly selects 'size' samples without replacement.
// When there are no more than 'size' samples, all of them are returned.
func SampleRows(rnd Randomizer, samples []*Sample, size int) []*Sample {
	if size <= 0 {
		panic("size must be greater than 0")
	}

	if len(samples) <= size {
		sampled := make([]*Sample, len(samples))
		copy(sampled, samples)
		return sampled
	}

	perm := rnd.Perm(len(samples))
	sampled := make([]*Sample, size)
	for i := 0; i < size; i++ {
		sampled[i] = samples[perm[i]]
	}
	return sampled
}

// Column returns the values of the named feature across the samples.
func Column(samples []*Sample, name string) ([]float64, error) {
	column := make([]float64, len(samples))
	for i, sample := range samples {
		v, err := sample.Value(name)
		if err != nil {
			return nil, err
		}
		column[i] = v
	}
	return column, nil
}

// MinMax returns the minimum and maximum values from a slice of float64.
func MinMax(floats []float64) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range floats {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

const eulerGamma = 0.5772156649

// AveragePathLength is c(n), the expected path length of an unsuccessful search
// in a binary search tree of n nodes.
func AveragePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}

	fn := float64(n)
	return 2.0*(math.Log(fn-1)+eulerGamma) - 2.0*(fn-1)/fn
}

// HeightLimit returns ceil(log2(size)), the default depth bound of a tree grown from size rows.
func HeightLimit(size int) int {
	if size <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(size))))
}
