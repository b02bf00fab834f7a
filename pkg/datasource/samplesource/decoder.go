package samplesource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/c9s/isoforest/pkg/ensemble/iforest"
)

var (
	// ErrMissingHeader is returned when the input has no header row naming the features.
	ErrMissingHeader = errors.New("missing header row")

	// ErrNotEnoughColumns is returned when a record is shorter than the columns it should provide.
	ErrNotEnoughColumns = errors.New("not enough columns")

	// ErrUnknownColumn is returned when a configured column is absent from the header.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidFeatureFormat is returned when a feature cell is not a valid float.
	ErrInvalidFeatureFormat = errors.New("feature value must be in valid float format")
)

// Layout maps the columns of a header row to the sample name and its features.
type Layout struct {
	// NameIndex is the column holding the sample name, -1 when samples are named by row.
	NameIndex int

	// FeatureIndexes are the columns decoded as features, in output order.
	FeatureIndexes []int

	// FeatureNames are the header names of FeatureIndexes.
	FeatureNames []string
}

// NewLayout resolves the name column and the feature columns against the header.
// Without explicit columns every column except the name column is a feature.
func NewLayout(header []string, nameColumn string, columns []string) (*Layout, error) {
	if len(header) == 0 {
		return nil, ErrMissingHeader
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	layout := &Layout{NameIndex: -1}
	if nameColumn != "" {
		i, ok := positions[nameColumn]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownColumn, "name column %q", nameColumn)
		}
		layout.NameIndex = i
	}

	if len(columns) == 0 {
		for i, name := range header {
			if i == layout.NameIndex {
				continue
			}
			layout.FeatureIndexes = append(layout.FeatureIndexes, i)
			layout.FeatureNames = append(layout.FeatureNames, strings.TrimSpace(name))
		}
		return layout, nil
	}

	for _, column := range columns {
		i, ok := positions[column]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownColumn, "feature column %q", column)
		}
		layout.FeatureIndexes = append(layout.FeatureIndexes, i)
		layout.FeatureNames = append(layout.FeatureNames, column)
	}
	return layout, nil
}

// Decode converts one record into a sample. defaultName is used when the layout has no name column.
func (l *Layout) Decode(record []string, defaultName string) (*iforest.Sample, error) {
	name := defaultName
	if l.NameIndex >= 0 {
		if l.NameIndex >= len(record) {
			return nil, ErrNotEnoughColumns
		}
		name = strings.TrimSpace(record[l.NameIndex])
	}

	features := make([]iforest.Feature, len(l.FeatureIndexes))
	for i, index := range l.FeatureIndexes {
		if index >= len(record) {
			return nil, ErrNotEnoughColumns
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[index]), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidFeatureFormat, "column %q: %q", l.FeatureNames[i], record[index])
		}
		features[i] = iforest.NewFeature(l.FeatureNames[i], value)
	}

	return iforest.NewSample(name, features...)
}

func rowName(prefix string, row int) string {
	return fmt.Sprintf("%s#%d", prefix, row)
}
