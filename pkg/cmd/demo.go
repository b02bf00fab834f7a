package cmd

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/c9s/isoforest/pkg/cmd/cmdutil"
	"github.com/c9s/isoforest/pkg/datasource/synthetic"
	"github.com/c9s/isoforest/pkg/detector"
	"github.com/c9s/isoforest/pkg/ensemble/iforest"
	"github.com/c9s/isoforest/pkg/report"
)

// DemoOptions describes the synthetic data set of the demo command.
// Training and normal test samples sit on a grid of 0.3 steps within [0, 30),
// outliers on a grid of 0.5 steps starting at OutlierOffset.
type DemoOptions struct {
	TrainSamples  int
	TestSamples   int
	Outliers      int
	OutlierOffset float64
	DataSeed      int64
	Color         bool
}

// go run ./cmd/isoforest demo --num-trees 50 --sample-size 16
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "score synthetic normal samples and outliers",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if err := viper.BindPFlags(flags); err != nil {
			return err
		}

		var forestOptions iforest.Options
		if err := cmdutil.ApplyForestFlags(flags, &forestOptions); err != nil {
			return err
		}

		options := DemoOptions{
			TrainSamples:  viper.GetInt("train-samples"),
			TestSamples:   viper.GetInt("test-samples"),
			Outliers:      viper.GetInt("outliers"),
			OutlierOffset: viper.GetFloat64("outlier-offset"),
			DataSeed:      viper.GetInt64("data-seed"),
			Color:         viper.GetBool("color"),
		}

		return runDemo(cmd.Context(), options, forestOptions, cmd.OutOrStdout())
	},
}

func init() {
	demoCmd.Flags().Int("train-samples", 100, "the number of training samples")
	demoCmd.Flags().Int("test-samples", 10, "the number of normal test samples")
	demoCmd.Flags().Int("outliers", 10, "the number of outliers")
	demoCmd.Flags().Float64("outlier-offset", 50, "where the outlier grid starts")
	demoCmd.Flags().Int64("data-seed", 1, "the random seed of the synthetic data")
	demoCmd.Flags().Bool("color", true, "highlight anomalies")
	cmdutil.ForestFlags(demoCmd.Flags())
	RootCmd.AddCommand(demoCmd)
}

func runDemo(ctx context.Context, options DemoOptions, forestOptions iforest.Options, stdout io.Writer) error {
	generator := synthetic.NewGenerator(options.DataSeed)
	train := generator.Grid("train", options.TrainSamples, 0, 0.3, 100)
	normal := generator.Grid("normal", options.TestSamples, 0, 0.3, 100)
	outliers := generator.Grid("outlier", options.Outliers, options.OutlierOffset, 0.5, 50)

	d := detector.New("demo", forestOptions)
	if err := d.Fit(ctx, train); err != nil {
		return err
	}

	normalResults, err := d.Detect(normal)
	if err != nil {
		return err
	}

	outlierResults, err := d.Detect(outliers)
	if err != nil {
		return err
	}

	report.PrintTable(stdout, "normal samples", normalResults, options.Color)
	report.PrintTable(stdout, "outliers", outlierResults, options.Color)

	normalSummary := report.Summarize(normalResults)
	outlierSummary := report.Summarize(outlierResults)
	if outlierSummary.Count > 0 && normalSummary.Count > 0 && outlierSummary.Mean <= normalSummary.Mean {
		log.Warnf("outliers scored %.4f on average, not above the normal samples %.4f",
			outlierSummary.Mean, normalSummary.Mean)
	}

	return nil
}
