package iforest

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Feature is a named numeric value of a sample.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// NewFeature creates a feature with the given name and value.
func NewFeature(name string, value float64) Feature {
	return Feature{Name: name, Value: value}
}

func (f Feature) String() string {
	return fmt.Sprintf("%s=%g", f.Name, f.Value)
}

// Sample is a named, ordered collection of features. Feature names are unique within a sample.
type Sample struct {
	Name string

	features []Feature
	index    map[string]int
}

// NewSample creates a sample carrying the given features.
func NewSample(name string, features ...Feature) (*Sample, error) {
	s := &Sample{Name: name}
	if err := s.AddFeatures(features...); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNewSample is like NewSample but panics on invalid features.
func MustNewSample(name string, features ...Feature) *Sample {
	s, err := NewSample(name, features...)
	if err != nil {
		panic(err)
	}
	return s
}

// AddFeature appends one feature to the sample.
func (s *Sample) AddFeature(feature Feature) error {
	return s.AddFeatures(feature)
}

// AddFeatures appends the features in order. Nothing is appended when any of
// them is invalid; every problem found is reported in the returned error.
func (s *Sample) AddFeatures(features ...Feature) error {
	var err error
	seen := make(map[string]struct{}, len(features))
	for _, feature := range features {
		if e := s.validate(feature, seen); e != nil {
			err = multierr.Append(err, e)
			continue
		}
		seen[feature.Name] = struct{}{}
	}

	if err != nil {
		return err
	}

	if s.index == nil {
		s.index = make(map[string]int, len(features))
	}

	for _, feature := range features {
		s.index[feature.Name] = len(s.features)
		s.features = append(s.features, feature)
	}
	return nil
}

func (s *Sample) validate(feature Feature, seen map[string]struct{}) error {
	if math.IsNaN(feature.Value) || math.IsInf(feature.Value, 0) {
		return errors.Wrapf(ErrInvalidFeatureValue, "sample %q feature %q: %v", s.Name, feature.Name, feature.Value)
	}

	if _, ok := s.index[feature.Name]; ok {
		return errors.Wrapf(ErrDuplicateFeatureName, "sample %q feature %q", s.Name, feature.Name)
	}

	if _, ok := seen[feature.Name]; ok {
		return errors.Wrapf(ErrDuplicateFeatureName, "sample %q feature %q", s.Name, feature.Name)
	}
	return nil
}

// Features returns a copy of the sample's features in insertion order.
func (s *Sample) Features() []Feature {
	features := make([]Feature, len(s.features))
	copy(features, s.features)
	return features
}

// Names returns the feature names in insertion order.
func (s *Sample) Names() []string {
	names := make([]string, len(s.features))
	for i, feature := range s.features {
		names[i] = feature.Name
	}
	return names
}

// Len returns the number of features.
func (s *Sample) Len() int {
	return len(s.features)
}

// Value looks up a feature value by name.
func (s *Sample) Value(name string) (float64, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, errors.Wrapf(ErrFeatureNotFound, "sample %q has no feature %q", s.Name, name)
	}
	return s.features[i].Value, nil
}

// Clone returns a deep copy of the sample.
func (s *Sample) Clone() *Sample {
	c := &Sample{
		Name:     s.Name,
		features: s.Features(),
		index:    make(map[string]int, len(s.index)),
	}
	for name, i := range s.index {
		c.index[name] = i
	}
	return c
}

func (s *Sample) String() string {
	return fmt.Sprintf("%s%v", s.Name, s.features)
}
