package iforest

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(name string, x, y float64) *Sample {
	return MustNewSample(name, NewFeature("x", x), NewFeature("y", y))
}

// clusterSamples draws n points around (15, 15), clamped to the [0, 30] square.
func clusterSamples(seed int64, n int) []*Sample {
	rnd := rand.New(rand.NewSource(seed))
	clamp := func(v float64) float64 {
		return math.Max(0, math.Min(30, v))
	}

	samples := make([]*Sample, n)
	for i := range samples {
		samples[i] = point("train", clamp(15+5*rnd.NormFloat64()), clamp(15+5*rnd.NormFloat64()))
	}
	return samples
}

func TestIsolationForest(t *testing.T) {
	tests := []struct {
		features    [][]float64
		predictions []int
	}{
		{
			[][]float64{
				{0, 0, 0},
				{0, 0, 0},
				{0, 0, 0},
				{1, 1, 1},
			},
			[]int{0, 0, 0, 1},
		},
	}

	for _, tt := range tests {
		forest, err := NewWithOptions(Options{Seed: 1})
		require.NoError(t, err)

		samples := newTestSamples(tt.features...)
		require.NoError(t, forest.AddSamples(samples...))
		require.NoError(t, forest.Build())

		preds, err := forest.Predict(samples)
		require.NoError(t, err)
		for i, pred := range preds {
			if pred != tt.predictions[i] {
				t.Errorf("expected %v, got %v", tt.predictions[i], pred)
			}
		}
	}
}

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name            string
		numTrees        int
		subSamplingSize int
	}{
		{"zero trees", 0, 16},
		{"zero sample size", 10, 0},
		{"negative trees", -1, 16},
		{"negative sample size", 10, -16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.numTrees, tt.subSamplingSize)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestNewWithOptions(t *testing.T) {
	forest, err := NewWithOptions(Options{})
	require.NoError(t, err)
	assert.Equal(t, defaultNumTrees, forest.NumTrees)
	assert.Equal(t, defaultSampleSize, forest.SampleSize)
	assert.Equal(t, DetectionTypeThreshold, forest.DetectionType)
	assert.Greater(t, forest.Concurrency, 0)

	_, err = NewWithOptions(Options{DetectionType: "median"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewWithOptions(Options{DetectionType: DetectionTypeProportion, Proportion: 1.5})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewWithOptions(Options{Threshold: 2})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewWithOptions(Options{NumTrees: -1, MaxDepth: -1})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestIsolationForest_ScoreBeforeBuild(t *testing.T) {
	forest, err := New(10, 16)
	require.NoError(t, err)
	require.NoError(t, forest.AddSample(point("a", 1, 1)))

	_, err = forest.Score(point("q", 1, 1))
	assert.ErrorIs(t, err, ErrNotBuilt)

	_, err = forest.ScoreAll([]*Sample{point("q", 1, 1)})
	assert.ErrorIs(t, err, ErrNotBuilt)

	_, err = forest.Predict([]*Sample{point("q", 1, 1)})
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestIsolationForest_BuildEmptyTrainingSet(t *testing.T) {
	forest, err := New(10, 16)
	require.NoError(t, err)

	assert.Nil(t, forest.Trees())

	err = forest.Build()
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)
	assert.False(t, forest.IsBuilt())
	assert.Nil(t, forest.Trees())

	_, err = forest.Score(point("q", 1, 1))
	assert.ErrorIs(t, err, ErrNotBuilt)

	// the forest can still be trained after the failed build
	require.NoError(t, forest.AddSample(point("a", 1, 1)))
	require.NoError(t, forest.AddSample(point("b", 2, 3)))
	require.NoError(t, forest.Build())
	assert.True(t, forest.IsBuilt())
	assert.Len(t, forest.Trees(), 10)
}

func TestIsolationForest_BuiltOnce(t *testing.T) {
	forest, err := New(5, 16)
	require.NoError(t, err)
	require.NoError(t, forest.AddSamples(clusterSamples(1, 20)...))
	require.NoError(t, forest.Build())

	assert.ErrorIs(t, forest.Build(), ErrAlreadyBuilt)
	assert.ErrorIs(t, forest.AddSample(point("late", 1, 1)), ErrAlreadyBuilt)
	assert.ErrorIs(t, forest.SetRandomizer(NewRandomizer(1)), ErrAlreadyBuilt)
	assert.Equal(t, 20, forest.TrainingSize())
}

func TestIsolationForest_BuildCanceled(t *testing.T) {
	forest, err := New(5, 16)
	require.NoError(t, err)
	require.NoError(t, forest.AddSamples(clusterSamples(1, 20)...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, forest.BuildContext(ctx), context.Canceled)
	assert.False(t, forest.IsBuilt())
	assert.Nil(t, forest.Trees())
}

func TestIsolationForest_InconsistentTrainingSet(t *testing.T) {
	forest, err := NewWithOptions(Options{NumTrees: 20, SampleSize: 4, Seed: 3})
	require.NoError(t, err)
	require.NoError(t, forest.AddSamples(
		MustNewSample("a", NewFeature("x", 1)),
		MustNewSample("b", NewFeature("y", 2)),
		MustNewSample("c", NewFeature("x", 3)),
		MustNewSample("d", NewFeature("y", 4)),
	))

	assert.ErrorIs(t, forest.Build(), ErrFeatureNotFound)
	assert.False(t, forest.IsBuilt())
}

func TestIsolationForest_SmallTrainingSet(t *testing.T) {
	forest, err := New(10, 256)
	require.NoError(t, err)
	require.NoError(t, forest.AddSamples(clusterSamples(2, 8)...))
	require.NoError(t, forest.Build())

	assert.Equal(t, 8, forest.SubSamplingSizeUsed())
	for _, tree := range forest.Trees() {
		assert.Equal(t, 8, tree.Root.Size)
		assert.Equal(t, HeightLimit(8), tree.HeightLimit)
	}
}

func TestIsolationForest_SingleTrainingSample(t *testing.T) {
	forest, err := New(10, 16)
	require.NoError(t, err)
	require.NoError(t, forest.AddSample(point("only", 1, 1)))
	require.NoError(t, forest.Build())

	score, err := forest.Score(point("far", 1000, 1000))
	require.NoError(t, err)
	assert.Equal(t, 0.5, score)
}

func TestIsolationForest_MissingFeature(t *testing.T) {
	forest, err := NewWithOptions(Options{NumTrees: 10, SampleSize: 16, Seed: 5})
	require.NoError(t, err)

	for i := 0; i < 32; i++ {
		require.NoError(t, forest.AddSample(MustNewSample("train", NewFeature("x", float64(i)))))
	}
	require.NoError(t, forest.Build())

	_, err = forest.Score(MustNewSample("query", NewFeature("y", 3)))
	assert.ErrorIs(t, err, ErrFeatureNotFound)

	_, err = forest.ScoreAll([]*Sample{
		MustNewSample("ok", NewFeature("x", 3)),
		MustNewSample("query", NewFeature("y", 3)),
	})
	assert.ErrorIs(t, err, ErrFeatureNotFound)
}

func TestIsolationForest_Deterministic(t *testing.T) {
	train := clusterSamples(11, 100)
	queries := []*Sample{point("inside", 15, 15), point("edge", 29, 1), point("far", 80, -40)}

	build := func(concurrency int) []float64 {
		forest, err := NewWithOptions(Options{NumTrees: 30, SampleSize: 16, Seed: 99, Concurrency: concurrency})
		require.NoError(t, err)
		require.NoError(t, forest.AddSamples(train...))
		require.NoError(t, forest.Build())

		scores, err := forest.ScoreAll(queries)
		require.NoError(t, err)
		return scores
	}

	sequential := build(1)
	parallel := build(8)
	assert.Equal(t, sequential, parallel)

	for _, score := range sequential {
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestIsolationForest_EndToEnd(t *testing.T) {
	forest, err := NewWithOptions(Options{NumTrees: 50, SampleSize: 16, Seed: 2024})
	require.NoError(t, err)
	require.NoError(t, forest.AddSamples(clusterSamples(7, 100)...))
	require.NoError(t, forest.Build())

	inside, err := forest.Score(point("inside", 15, 15))
	require.NoError(t, err)
	assert.Less(t, inside, 0.5)

	outside, err := forest.Score(point("outside", 200, 200))
	require.NoError(t, err)
	assert.Greater(t, outside, 0.6)

	assert.Greater(t, outside, inside)
}

func TestNormalizedScore(t *testing.T) {
	c := AveragePathLength(16)
	assert.InDelta(t, 0.5, normalizedScore(c, 16), 1e-12)
	assert.Equal(t, 1.0, normalizedScore(0, 16))
	assert.InDelta(t, 0.0, normalizedScore(1e6, 16), 1e-12)
	assert.Greater(t, normalizedScore(c/2, 16), normalizedScore(c*2, 16))
}

func TestIsolationForest_LabelProportion(t *testing.T) {
	forest, err := NewWithOptions(Options{DetectionType: DetectionTypeProportion, Proportion: 0.25})
	require.NoError(t, err)

	scores := []float64{0.3, 0.1, 0.9, 0.2, 0.5, 0.4, 1.0, 0.6, 0.8, 0.7}
	labels := forest.Label(scores)
	assert.Equal(t, []int{0, 0, 1, 0, 0, 0, 1, 0, 1, 0}, labels)
}

func TestQuantile(t *testing.T) {
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, 3.0, Quantile([]float64{5, 1, 3, 2, 4}, 0.5))
}
