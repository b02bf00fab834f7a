package cmd

import (
	"os"

	"github.com/heroku/rollrus"
	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

func GetCurrentEnv() string {
	env := os.Getenv("ISOFOREST_ENV")
	if env == "" {
		env = "development"
	}

	return env
}

type LogFormatterType string

const (
	LogFormatterTypePrefixed LogFormatterType = "prefixed"
	LogFormatterTypeText     LogFormatterType = "text"
	LogFormatterTypeJson     LogFormatterType = "json"
)

// NewLogFormatterWithEnv logs json in deployed environments and prefixed text elsewhere.
func NewLogFormatterWithEnv(env string) log.Formatter {
	switch env {
	case "production", "prod", "staging":
		return NewLogFormatter(LogFormatterTypeJson)
	}

	return NewLogFormatter(LogFormatterTypePrefixed)
}

// NewLogFormatter falls back to the prefixed formatter for unknown types.
func NewLogFormatter(formatterType LogFormatterType) log.Formatter {
	switch formatterType {
	case LogFormatterTypeText:
		return &log.TextFormatter{FullTimestamp: true}
	case LogFormatterTypeJson:
		return &log.JSONFormatter{}
	}

	return &prefixed.TextFormatter{FullTimestamp: true}
}

func setupLogging(logger *log.Logger) {
	if formatter := viper.GetString("log-formatter"); formatter != "" {
		logger.SetFormatter(NewLogFormatter(LogFormatterType(formatter)))
	} else {
		logger.SetFormatter(NewLogFormatterWithEnv(GetCurrentEnv()))
	}

	if viper.GetBool("debug") {
		logger.SetLevel(log.DebugLevel)
	}

	if logFile := viper.GetString("log-file"); logFile != "" {
		writer := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    viper.GetInt("log-file-max-size"),
			MaxBackups: 3,
			Compress:   true,
		}

		logger.AddHook(
			lfshook.NewHook(
				lfshook.WriterMap{
					log.DebugLevel: writer,
					log.InfoLevel:  writer,
					log.WarnLevel:  writer,
					log.ErrorLevel: writer,
					log.FatalLevel: writer,
				},
				&log.JSONFormatter{},
			),
		)
	}

	if token := viper.GetString("rollbar-token"); token != "" {
		logger.AddHook(rollrus.NewHook(token, GetCurrentEnv()))
	}
}
