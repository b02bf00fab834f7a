package cmd

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/c9s/isoforest/pkg/cmd/cmdutil"
)

var RootCmd = &cobra.Command{
	Use:   "isoforest",
	Short: "isolation forest anomaly scoring",
	Long:  "score how easily samples are isolated from the rest of a dataset",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotenvFile := viper.GetString("dotenv")
		if _, err := os.Stat(dotenvFile); err == nil {
			if err := godotenv.Load(dotenvFile); err != nil {
				return errors.Wrapf(err, "error loading dotenv file %s", dotenvFile)
			}
		}

		setupLogging(log.StandardLogger())
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		url := viper.GetString("metrics-push-url")
		if url == "" {
			return nil
		}

		if err := push.New(url, "isoforest").Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
			return errors.Wrapf(err, "unable to push metrics to %s", url)
		}

		log.Infof("metrics pushed to %s", url)
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	RootCmd.PersistentFlags().Bool("debug", false, "debug flag")
	RootCmd.PersistentFlags().String("config", "", "config file")
	RootCmd.PersistentFlags().String("dotenv", ".env.local", "the dotenv file you want to load")
	RootCmd.PersistentFlags().String("log-formatter", "", "log formatter: prefixed, text or json")
	RootCmd.PersistentFlags().String("log-file", "", "also write json logs to this file")
	RootCmd.PersistentFlags().Int("log-file-max-size", 100, "the log file size in megabytes before it gets rotated")
	RootCmd.PersistentFlags().String("rollbar-token", "", "report warnings and errors to rollbar")
	RootCmd.PersistentFlags().String("metrics-push-url", "", "prometheus pushgateway url the metrics are pushed to when the command finishes")
}

func Execute() {
	viper.SetEnvPrefix("ISOFOREST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Enable environment variable binding, the env vars are not overloaded yet.
	viper.AutomaticEnv()

	// Once the flags are defined, we can bind config keys with flags.
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		log.WithError(err).Errorf("failed to bind persistent flags. please check the flag settings.")
	}

	if err := viper.BindPFlags(RootCmd.Flags()); err != nil {
		log.WithError(err).Errorf("failed to bind local flags. please check the flag settings.")
	}

	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		log.WithError(err).Fatalf("cannot execute command")
	}
}
