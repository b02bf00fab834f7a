package iforest

import "github.com/pkg/errors"

var (
	// ErrEmptyTrainingSet is returned when Build is called before any sample was added.
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrNotBuilt is returned when a forest is queried before a successful Build.
	ErrNotBuilt = errors.New("isolation forest is not built")

	// ErrAlreadyBuilt is returned when a built forest is asked to accept more samples or to build again.
	ErrAlreadyBuilt = errors.New("isolation forest is already built")

	// ErrFeatureNotFound is returned when a sample does not carry the feature a split requires.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrDuplicateFeatureName is returned when a sample receives two features with the same name.
	ErrDuplicateFeatureName = errors.New("duplicate feature name")

	// ErrInvalidFeatureValue is returned for NaN or infinite feature values.
	ErrInvalidFeatureValue = errors.New("feature value must be a finite number")

	// ErrInvalidConfiguration is returned for non-positive tree counts, sample sizes and other bad options.
	ErrInvalidConfiguration = errors.New("invalid isolation forest configuration")
)
