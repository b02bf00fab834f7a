package iforest

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSamples(rows ...[]float64) []*Sample {
	samples := make([]*Sample, len(rows))
	for i, row := range rows {
		s := &Sample{}
		for j, v := range row {
			if err := s.AddFeature(NewFeature(string(rune('a'+j)), v)); err != nil {
				panic(err)
			}
		}
		samples[i] = s
	}
	return samples
}

func TestSampleRows(t *testing.T) {
	tests := []struct {
		name    string
		samples []*Sample
		size    int
	}{
		{
			name:    "Sample size less than sample count",
			samples: newTestSamples([]float64{1.0, 2.0}, []float64{3.0, 4.0}, []float64{5.0, 6.0}),
			size:    2,
		},
		{
			name:    "Sample size equal to sample count",
			samples: newTestSamples([]float64{1.0, 2.0}, []float64{3.0, 4.0}, []float64{5.0, 6.0}),
			size:    3,
		},
		{
			name:    "Sample size greater than sample count",
			samples: newTestSamples([]float64{1.0, 2.0}, []float64{3.0, 4.0}),
			size:    3,
		},
		{
			name:    "Sample size zero",
			samples: newTestSamples([]float64{1.0, 2.0}, []float64{3.0, 4.0}),
			size:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					if tt.size > 0 {
						t.Errorf("SampleRows() panicked with size %d", tt.size)
					}
				}
			}()

			got := SampleRows(rand.New(rand.NewSource(1)), tt.samples, tt.size)
			if tt.size > 0 && len(tt.samples) > tt.size {
				if len(got) != tt.size {
					t.Errorf("SampleRows() = %v, want length %d", got, tt.size)
				}
			} else {
				if !reflect.DeepEqual(got, tt.samples) {
					t.Errorf("SampleRows() = %v, want %v", got, tt.samples)
				}
			}
		})
	}
}

func TestSampleRows_WithoutReplacement(t *testing.T) {
	rows := make([][]float64, 50)
	for i := range rows {
		rows[i] = []float64{float64(i)}
	}
	samples := newTestSamples(rows...)

	got := SampleRows(rand.New(rand.NewSource(7)), samples, 20)
	require.Len(t, got, 20)

	seen := map[*Sample]struct{}{}
	for _, s := range got {
		_, dup := seen[s]
		assert.False(t, dup, "sample drawn twice")
		seen[s] = struct{}{}
	}
}

func TestColumn(t *testing.T) {
	tests := []struct {
		name    string
		samples []*Sample
		feature string
		want    []float64
	}{
		{
			name:    "Middle feature",
			samples: newTestSamples([]float64{1.0, 2.0, 3.0}, []float64{4.0, 5.0, 6.0}, []float64{7.0, 8.0, 9.0}),
			feature: "b",
			want:    []float64{2.0, 5.0, 8.0},
		},
		{
			name:    "First feature",
			samples: newTestSamples([]float64{1.0, 2.0}, []float64{3.0, 4.0}),
			feature: "a",
			want:    []float64{1.0, 3.0},
		},
		{
			name:    "Single sample",
			samples: newTestSamples([]float64{1.0, 2.0, 3.0}),
			feature: "c",
			want:    []float64{3.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Column(tt.samples, tt.feature)
			if assert.NoError(t, err) {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	_, err := Column(newTestSamples([]float64{1.0}), "z")
	assert.ErrorIs(t, err, ErrFeatureNotFound)
}

func TestMinMax(t *testing.T) {
	min, max := MinMax([]float64{3, -1, 7, 2})
	assert.Equal(t, -1.0, min)
	assert.Equal(t, 7.0, max)
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, AveragePathLength(0))
	assert.Equal(t, 0.0, AveragePathLength(1))
	assert.InDelta(t, 2*eulerGamma-1, AveragePathLength(2), 1e-12)
	assert.InDelta(t, 2*(math.Log(255)+eulerGamma)-2*255.0/256.0, AveragePathLength(256), 1e-12)

	prev := AveragePathLength(1)
	for n := 2; n <= 4096; n++ {
		c := AveragePathLength(n)
		if c < prev {
			t.Fatalf("c(%d) = %f is less than c(%d) = %f", n, c, n-1, prev)
		}
		prev = c
	}
}

func TestHeightLimit(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1, 0},
		{2, 1},
		{3, 2},
		{16, 4},
		{17, 5},
		{256, 8},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HeightLimit(tt.size), "size %d", tt.size)
	}
}
