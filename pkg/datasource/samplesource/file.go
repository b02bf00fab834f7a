package samplesource

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/isoforest/pkg/ensemble/iforest"
)

var log = logrus.WithField("component", "samplesource")

// Batch is the set of samples read from one file.
type Batch struct {
	Name    string
	Path    string
	Samples []*iforest.Sample
}

// DelimiterForPath picks tab for .tsv, .tab and .txt files and comma otherwise.
func DelimiterForPath(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab", ".txt":
		return '\t'
	}
	return ','
}

// IsSampleFile reports whether the path looks like delimited sample data.
func IsSampleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".tab", ".txt":
		return true
	}
	return false
}

// ReadFile reads every sample of the file. Generated sample names are prefixed
// with the file name unless options.Prefix is set.
func ReadFile(path string, options ReaderOptions) ([]*iforest.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if options.Prefix == "" {
		options.Prefix = batchName(path)
	}

	samples, err := NewSampleReaderWithDelimiter(f, DelimiterForPath(path), options).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read samples from %s", path)
	}
	return samples, nil
}

// ReadDir reads every sample file under dir, one batch per file, in lexical path order.
func ReadDir(dir string, options ReaderOptions) ([]Batch, error) {
	var batches []Batch
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !IsSampleFile(path) {
			return nil
		}

		samples, err := ReadFile(path, options)
		if err != nil {
			return err
		}

		log.Debugf("loaded %d samples from %s", len(samples), path)
		batches = append(batches, Batch{Name: batchName(path), Path: path, Samples: samples})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return batches, nil
}

// ReadPath reads a single file or, for a directory, all of its files merged into one slice.
func ReadPath(path string, options ReaderOptions) ([]*iforest.Sample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return ReadFile(path, options)
	}

	batches, err := ReadDir(path, options)
	if err != nil {
		return nil, err
	}

	var samples []*iforest.Sample
	for _, batch := range batches {
		samples = append(samples, batch.Samples...)
	}
	return samples, nil
}

func batchName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
