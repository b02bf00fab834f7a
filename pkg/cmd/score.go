package cmd

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/c9s/isoforest/pkg/cmd/cmdutil"
	"github.com/c9s/isoforest/pkg/config"
	"github.com/c9s/isoforest/pkg/datasource/samplesource"
	"github.com/c9s/isoforest/pkg/detector"
	"github.com/c9s/isoforest/pkg/report"
)

// go run ./cmd/isoforest score --train data/train.csv --query data/query.tsv --name-column id
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "build an isolation forest from training samples and score query samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadScoreConfig(cmd)
		if err != nil {
			return err
		}

		return runScore(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	scoreCmd.Flags().String("train", "", "training sample file or directory")
	scoreCmd.Flags().String("query", "", "sample file or directory to score, defaults to the training samples")
	scoreCmd.Flags().String("name-column", "", "the column holding sample names")
	scoreCmd.Flags().StringSlice("columns", nil, "the feature columns, every other column by default")
	scoreCmd.Flags().String("output", "", "write the scores to this csv file")
	scoreCmd.Flags().Bool("table", true, "print the score table")
	scoreCmd.Flags().Bool("color", false, "highlight anomalies in the score table")
	cmdutil.ForestFlags(scoreCmd.Flags())
	RootCmd.AddCommand(scoreCmd)
}

func loadScoreConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{Output: config.OutputConfig{Table: true}}
	if configFile := viper.GetString("config"); configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if viper.IsSet("train") {
		cfg.Source.Train = viper.GetString("train")
	}

	if viper.IsSet("query") {
		cfg.Source.Query = viper.GetString("query")
	}

	if viper.IsSet("name-column") {
		cfg.Source.NameColumn = viper.GetString("name-column")
	}

	if viper.IsSet("columns") {
		cfg.Source.Columns = viper.GetStringSlice("columns")
	}

	if viper.IsSet("output") {
		cfg.Output.CSV = viper.GetString("output")
	}

	if viper.IsSet("table") {
		cfg.Output.Table = viper.GetBool("table")
	}

	if viper.IsSet("color") {
		cfg.Output.Color = viper.GetBool("color")
	}

	if err := cmdutil.ApplyForestFlags(cmd.Flags(), &cfg.Forest); err != nil {
		return nil, err
	}

	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runScore(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	train, err := samplesource.ReadPath(cfg.Source.Train, cfg.Source.ReaderOptions)
	if err != nil {
		return err
	}

	log.Infof("loaded %d training samples from %s", len(train), cfg.Source.Train)

	batches, err := loadQueryBatches(cfg)
	if err != nil {
		return err
	}

	if batches == nil {
		batches = []samplesource.Batch{{Name: cfg.Source.Train, Path: cfg.Source.Train, Samples: train}}
	}

	d := detector.New(cfg.Name, cfg.Forest)
	d.NotificationInterval = cfg.NotificationInterval
	d.Defaults()

	if err := d.Fit(ctx, train); err != nil {
		return err
	}

	var all []detector.Result
	for _, batch := range batches {
		results, err := d.Detect(batch.Samples)
		if err != nil {
			return errors.Wrapf(err, "unable to score %s", batch.Path)
		}

		if cfg.Output.Table {
			report.PrintTable(stdout, batch.Name, results, cfg.Output.Color)
		}

		log.Infof("%s: %s", batch.Name, report.Summarize(results))
		all = append(all, results...)
	}

	if cfg.Output.CSV == "" {
		return nil
	}

	f, err := os.Create(cfg.Output.CSV)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := report.WriteCSV(f, all); err != nil {
		return errors.Wrapf(err, "unable to write %s", cfg.Output.CSV)
	}

	log.Infof("scores written to %s", cfg.Output.CSV)
	return f.Close()
}

// loadQueryBatches returns one batch per query file, nil when no query source is set.
func loadQueryBatches(cfg *config.Config) ([]samplesource.Batch, error) {
	query := cfg.Source.Query
	if query == "" {
		return nil, nil
	}

	info, err := os.Stat(query)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return samplesource.ReadDir(query, cfg.Source.ReaderOptions)
	}

	samples, err := samplesource.ReadFile(query, cfg.Source.ReaderOptions)
	if err != nil {
		return nil, err
	}
	return []samplesource.Batch{{Name: query, Path: query, Samples: samples}}, nil
}
