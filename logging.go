package main

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SetupLogging is a helper function that initialize the logging module.
// All logs are saved to the log files as json. In development the same
// logs are printed to standard output as well, unless the console menu
// owns the terminal. It only adds stacktrace to error level logs. All
// logs come with commit & tag value.
func SetupLogging(config *Config, logFile zapcore.WriteSyncer, withStdout bool) (*zap.Logger, func()) {
	var zapConfig zapcore.EncoderConfig
	if config.IsProduction {
		zapConfig = zap.NewProductionEncoderConfig()
	} else {
		zapConfig = zap.NewDevelopmentEncoderConfig()
	}
	zapConfig.TimeKey = "timestamp"
	zapConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.LevelKey = "level"
	zapConfig.NameKey = "name"
	zapConfig.MessageKey = "msg"
	zapConfig.CallerKey = "caller"
	zapConfig.StacktraceKey = "stacktrace"

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(zapConfig), logFile, config.LogLevel),
	}
	if !config.IsProduction && withStdout {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(zapConfig), zapcore.Lock(os.Stdout), config.LogLevel))
	}
	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	logger = logger.With(zap.String("app.commit", config.GitCommit), zap.String("app.tag", config.GitTag), zap.String("app.built", config.BuildTime))

	flusher := func() {
		if err := logger.Sync(); err != nil {
			log.Println("error during flushing any buffered log entries:", err)
		}
	}

	return logger, flusher
}
