package iforest

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

var log = logrus.WithField("component", "iforest")

const (
	defaultNumTrees       = 100
	defaultSampleSize     = 256
	defaultScoreThreshold = 0.6
	defaultProportion     = 0.05
	defaultDetectionType  = DetectionTypeThreshold
)

type DetectionType string

const (
	DetectionTypeThreshold  DetectionType = "threshold"
	DetectionTypeProportion DetectionType = "proportion"
)

type Options struct {
	// The method used for anomaly detection
	DetectionType DetectionType `json:"detectionType" yaml:"detectionType"`

	// The anomaly score threshold
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// The proportion of outliers in the dataset
	Proportion float64 `json:"proportion" yaml:"proportion"`

	// The number of trees to build in the forest
	NumTrees int `json:"numTrees" yaml:"numTrees"`

	// The sample size for each isolation tree
	SampleSize int `json:"sampleSize" yaml:"sampleSize"`

	// The maximum depth of each isolation tree, derived from the
	// subsample size actually used when left at zero
	MaxDepth int `json:"maxDepth" yaml:"maxDepth"`

	// Seed of the forest randomizer, zero picks a time based seed
	Seed int64 `json:"seed" yaml:"seed"`

	// The number of trees built at the same time
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// SetDefaultValues applies default settings to unspecified fields
func (o *Options) SetDefaultValues() {
	if o.DetectionType == "" {
		o.DetectionType = defaultDetectionType
	}

	if o.Threshold == 0 {
		o.Threshold = defaultScoreThreshold
	}

	if o.Proportion == 0 {
		o.Proportion = defaultProportion
	}

	if o.NumTrees == 0 {
		o.NumTrees = defaultNumTrees
	}

	if o.SampleSize == 0 {
		o.SampleSize = defaultSampleSize
	}

	if o.Concurrency == 0 {
		o.Concurrency = runtime.NumCPU()
	}
}

// Validate reports every invalid option.
func (o *Options) Validate() error {
	var err error
	if o.NumTrees <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration, "numTrees must be positive, got %d", o.NumTrees))
	}

	if o.SampleSize <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration, "sampleSize must be positive, got %d", o.SampleSize))
	}

	if o.MaxDepth < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration, "maxDepth can not be negative, got %d", o.MaxDepth))
	}

	if o.Concurrency < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration, "concurrency can not be negative, got %d", o.Concurrency))
	}

	switch o.DetectionType {
	case DetectionTypeThreshold:
		if o.Threshold < 0 || o.Threshold > 1 {
			err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration, "threshold must be within [0, 1], got %f", o.Threshold))
		}

	case DetectionTypeProportion:
		if o.Proportion <= 0 || o.Proportion >= 1 {
			err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration, "proportion must be within (0, 1), got %f", o.Proportion))
		}

	default:
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration, "unknown detection type %q", o.DetectionType))
	}

	return err
}

// IsolationForest orchestrates anomaly detection using isolation trees.
// Samples are added first, the forest is built exactly once, and it is read-only afterwards.
type IsolationForest struct {
	*Options

	mu         sync.RWMutex
	randomizer Randomizer
	samples    []*Sample
	trees      []*Tree
	sampleSize int
	built      bool
}

// New creates an IsolationForest of numTrees trees, each grown from at most subSamplingSize samples.
func New(numTrees, subSamplingSize int) (*IsolationForest, error) {
	if numTrees <= 0 || subSamplingSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "numTrees=%d subSamplingSize=%d", numTrees, subSamplingSize)
	}

	return NewWithOptions(Options{NumTrees: numTrees, SampleSize: subSamplingSize})
}

// NewWithOptions creates an IsolationForest with the specified options.
// Zero fields take their default values.
func NewWithOptions(options Options) (*IsolationForest, error) {
	options.SetDefaultValues()
	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &IsolationForest{
		Options:    &options,
		randomizer: NewRandomizer(options.Seed),
	}, nil
}

// SetRandomizer replaces the randomizer the per-tree randomizers are drawn from.
func (f *IsolationForest) SetRandomizer(randomizer Randomizer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.built {
		return ErrAlreadyBuilt
	}

	f.randomizer = randomizer
	return nil
}

// AddSample appends a copy of the sample to the training set.
func (f *IsolationForest) AddSample(sample *Sample) error {
	return f.AddSamples(sample)
}

// AddSamples appends copies of the samples to the training set.
func (f *IsolationForest) AddSamples(samples ...*Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.built {
		return ErrAlreadyBuilt
	}

	for _, sample := range samples {
		f.samples = append(f.samples, sample.Clone())
	}
	return nil
}

// Build constructs the isolation trees from the training set.
func (f *IsolationForest) Build() error {
	return f.BuildContext(context.Background())
}

// BuildContext constructs the isolation trees concurrently. Either every tree is
// built or the forest is left unbuilt.
func (f *IsolationForest) BuildContext(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.built {
		return ErrAlreadyBuilt
	}

	if len(f.samples) == 0 {
		return ErrEmptyTrainingSet
	}

	startTime := time.Now()
	sampleSize := f.SampleSize
	if len(f.samples) < sampleSize {
		sampleSize = len(f.samples)
	}

	heightLimit := f.MaxDepth
	if heightLimit == 0 {
		heightLimit = HeightLimit(sampleSize)
	}

	randomizers := deriveRandomizers(f.randomizer, f.NumTrees)
	trees := make([]*Tree, f.NumTrees)

	g, buildCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.Concurrency)
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := buildCtx.Err(); err != nil {
				return err
			}

			subsample := SampleRows(randomizers[i], f.samples, sampleSize)
			tree, err := BuildTree(randomizers[i], subsample, heightLimit)
			if err != nil {
				return errors.Wrapf(err, "unable to build tree #%d", i)
			}

			trees[i] = tree
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.sampleSize = sampleSize
	f.built = true

	log.WithFields(logrus.Fields{
		"trees":       len(trees),
		"samples":     len(f.samples),
		"sampleSize":  sampleSize,
		"heightLimit": heightLimit,
	}).Debugf("isolation forest built in %s", time.Since(startTime))
	return nil
}

// Score computes the anomaly score of the sample, within [0, 1]. Scores close
// to 1 mark anomalies, scores at or below 0.5 mark normal samples.
func (f *IsolationForest) Score(sample *Sample) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.built {
		return 0, ErrNotBuilt
	}

	return f.score(sample)
}

func (f *IsolationForest) score(sample *Sample) (float64, error) {
	sum := 0.0
	for i, tree := range f.trees {
		pathLength, err := tree.PathLength(sample)
		if err != nil {
			return 0, errors.Wrapf(err, "unable to score sample %q with tree #%d", sample.Name, i)
		}
		sum += pathLength
	}

	return normalizedScore(sum/float64(len(f.trees)), f.sampleSize), nil
}

// normalizedScore maps an average path length to 2^(-avg/c(n)). With a single
// training row c(n) is zero, every path is zero and there is no evidence either way.
func normalizedScore(avgPathLength float64, sampleSize int) float64 {
	c := AveragePathLength(sampleSize)
	if c == 0 {
		return 0.5
	}
	return math.Pow(2.0, -avgPathLength/c)
}

// ScoreAll computes anomaly scores for each sample
func (f *IsolationForest) ScoreAll(samples []*Sample) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.built {
		return nil, ErrNotBuilt
	}

	scores := make([]float64, len(samples))
	var g errgroup.Group
	g.SetLimit(f.Concurrency)
	for i, sample := range samples {
		i, sample := i, sample
		g.Go(func() error {
			score, err := f.score(sample)
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Label marks scores as outliers (1) or normal (0) based on the detection type
func (f *IsolationForest) Label(scores []float64) []int {
	var threshold float64
	switch f.DetectionType {
	case DetectionTypeProportion:
		threshold = Quantile(scores, 1-f.Proportion)
	default:
		threshold = f.Threshold
	}

	labels := make([]int, len(scores))
	for i, score := range scores {
		if score >= threshold {
			labels[i] = 1
		}
	}
	return labels
}

// Predict labels samples as outliers (1) or normal (0) based on the detection type
func (f *IsolationForest) Predict(samples []*Sample) ([]int, error) {
	scores, err := f.ScoreAll(samples)
	if err != nil {
		return nil, err
	}
	return f.Label(scores), nil
}

// Quantile returns the empirical p-quantile of the values.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Trees returns the built trees, nil before Build.
func (f *IsolationForest) Trees() []*Tree {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.built {
		return nil
	}

	trees := make([]*Tree, len(f.trees))
	copy(trees, f.trees)
	return trees
}

// IsBuilt reports whether Build succeeded.
func (f *IsolationForest) IsBuilt() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.built
}

// TrainingSize returns the number of samples added so far.
func (f *IsolationForest) TrainingSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.samples)
}

// SubSamplingSizeUsed returns the per-tree subsample size used at build time,
// which is smaller than SampleSize when the training set was.
func (f *IsolationForest) SubSamplingSizeUsed() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sampleSize
}
