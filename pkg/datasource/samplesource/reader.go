package samplesource

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"

	"github.com/c9s/isoforest/pkg/ensemble/iforest"
)

const defaultPrefix = "row"

// ReaderOptions selects how records map to samples.
type ReaderOptions struct {
	// NameColumn names the column holding the sample name. Samples are named
	// "<Prefix>#<row>" when empty.
	NameColumn string `json:"nameColumn" yaml:"nameColumn"`

	// Columns restricts the features to these header names, in this order.
	Columns []string `json:"columns" yaml:"columns"`

	// Prefix of generated sample names.
	Prefix string `json:"prefix" yaml:"prefix"`
}

// CSVSampleReader reads samples from delimited text whose first row is a header.
type CSVSampleReader struct {
	csv     *csv.Reader
	options ReaderOptions
	layout  *Layout
	row     int
}

// NewCSVSampleReader creates a reader for comma separated input.
func NewCSVSampleReader(r io.Reader, options ReaderOptions) *CSVSampleReader {
	return NewSampleReaderWithDelimiter(r, ',', options)
}

// NewTSVSampleReader creates a reader for tab separated input.
func NewTSVSampleReader(r io.Reader, options ReaderOptions) *CSVSampleReader {
	return NewSampleReaderWithDelimiter(r, '\t', options)
}

// NewSampleReaderWithDelimiter creates a reader splitting fields on delimiter.
func NewSampleReaderWithDelimiter(r io.Reader, delimiter rune, options ReaderOptions) *CSVSampleReader {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = delimiter == '\t'

	if options.Prefix == "" {
		options.Prefix = defaultPrefix
	}

	return &CSVSampleReader{csv: reader, options: options}
}

// Header returns the feature names of the samples, reading the header row on first use.
func (r *CSVSampleReader) Header() ([]string, error) {
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r.layout.FeatureNames, nil
}

func (r *CSVSampleReader) readHeader() error {
	if r.layout != nil {
		return nil
	}

	header, err := r.csv.Read()
	if err == io.EOF {
		return ErrMissingHeader
	} else if err != nil {
		return err
	}

	layout, err := NewLayout(header, r.options.NameColumn, r.options.Columns)
	if err != nil {
		return err
	}

	r.layout = layout
	return nil
}

// Read reads the next sample. It returns io.EOF at the end of the input.
func (r *CSVSampleReader) Read() (*iforest.Sample, error) {
	if err := r.readHeader(); err != nil {
		return nil, err
	}

	record, err := r.csv.Read()
	if err != nil {
		return nil, err
	}

	r.row++
	sample, err := r.layout.Decode(record, rowName(r.options.Prefix, r.row))
	if err != nil {
		return nil, errors.Wrapf(err, "record %d", r.row)
	}
	return sample, nil
}

// ReadAll reads all the samples of the input.
func (r *CSVSampleReader) ReadAll() ([]*iforest.Sample, error) {
	var samples []*iforest.Sample
	for {
		sample, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	return samples, nil
}
