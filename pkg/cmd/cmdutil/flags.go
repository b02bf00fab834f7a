package cmdutil

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/c9s/isoforest/pkg/ensemble/iforest"
)

// ForestFlags defines the flags for the isolation forest options
func ForestFlags(flags *pflag.FlagSet) {
	flags.Int("num-trees", 100, "the number of isolation trees")
	flags.Int("sample-size", 256, "the number of samples drawn for each tree")
	flags.Int("max-depth", 0, "the maximum tree depth, 0 derives it from the sample size")
	flags.Int64("seed", 0, "the random seed, 0 picks a time based seed")
	flags.Int("concurrency", 0, "the number of trees built at the same time, 0 uses every CPU")
	flags.String("detection-type", string(iforest.DetectionTypeThreshold), "anomaly detection type: threshold or proportion")
	flags.Float64("threshold", 0.6, "the anomaly score threshold")
	flags.Float64("proportion", 0.05, "the expected proportion of anomalies")
}

// ApplyForestFlags overrides the options with the flags and ISOFOREST_* env vars that were set explicitly.
func ApplyForestFlags(flags *pflag.FlagSet, options *iforest.Options) error {
	if err := viper.BindPFlags(flags); err != nil {
		return err
	}

	if viper.IsSet("num-trees") {
		options.NumTrees = viper.GetInt("num-trees")
	}

	if viper.IsSet("sample-size") {
		options.SampleSize = viper.GetInt("sample-size")
	}

	if viper.IsSet("max-depth") {
		options.MaxDepth = viper.GetInt("max-depth")
	}

	if viper.IsSet("seed") {
		options.Seed = viper.GetInt64("seed")
	}

	if viper.IsSet("concurrency") {
		options.Concurrency = viper.GetInt("concurrency")
	}

	if viper.IsSet("detection-type") {
		options.DetectionType = iforest.DetectionType(viper.GetString("detection-type"))
	}

	if viper.IsSet("threshold") {
		options.Threshold = viper.GetFloat64("threshold")
	}

	if viper.IsSet("proportion") {
		options.Proportion = viper.GetFloat64("proportion")
	}

	options.SetDefaultValues()
	return nil
}
