package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/c9s/isoforest/pkg/datasource/samplesource"
	"github.com/c9s/isoforest/pkg/ensemble/iforest"
)

// ErrInvalidConfig is returned when a loaded config can not be used.
var ErrInvalidConfig = errors.New("invalid config")

type SourceConfig struct {
	// Train is a sample file or a directory of sample files used to build the forest.
	Train string `json:"train" yaml:"train"`

	// Query is a sample file or a directory of sample files to score.
	// The training samples are scored when it is empty.
	Query string `json:"query" yaml:"query"`

	samplesource.ReaderOptions `yaml:",inline"`
}

type OutputConfig struct {
	// CSV is the path of the score report, empty to skip it.
	CSV string `json:"csv" yaml:"csv"`

	// Table prints the score table to stdout.
	Table bool `json:"table" yaml:"table"`

	// Color highlights anomalies in the table.
	Color bool `json:"color" yaml:"color"`
}

type Config struct {
	Name                 string          `json:"name" yaml:"name"`
	Forest               iforest.Options `json:"forest" yaml:"forest"`
	Source               SourceConfig    `json:"source" yaml:"source"`
	Output               OutputConfig    `json:"output" yaml:"output"`
	NotificationInterval time.Duration   `json:"notificationInterval" yaml:"notificationInterval"`
}

// Load parses the config file and applies the defaults.
func Load(configFile string) (*Config, error) {
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	config, err := Parse(content)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load config %s", configFile)
	}
	return config, nil
}

// Parse decodes a YAML config and applies the defaults.
// The score table is printed unless output.table is set to false.
func Parse(content []byte) (*Config, error) {
	config := Config{Output: OutputConfig{Table: true}}
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, err
	}

	config.Defaults()
	return &config, nil
}

func (c *Config) Defaults() {
	if c.Name == "" {
		c.Name = "default"
	}

	c.Forest.SetDefaultValues()
}

// Validate reports every problem of the config.
func (c *Config) Validate() error {
	var err error
	if c.Source.Train == "" {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfig, "source.train is required"))
	}

	if c.NotificationInterval < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "notificationInterval can not be negative, got %s", c.NotificationInterval))
	}

	if e := c.Forest.Validate(); e != nil {
		err = multierr.Append(err, e)
	}

	return err
}
