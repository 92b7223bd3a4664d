// Package log is a thin wrapper around a zap sugared logger that keeps the debug/info/warn
// helper style used throughout the commands.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Level is one of debug, info, warn or error.
	Level string
	// Format selects the console encoder, 'console' or 'json'.
	Format string
	// File is the JSON log file. Empty disables file logging.
	File string
}

var (
	guard  sync.RWMutex
	logger = zap.NewNop().Sugar()
)

// Init replaces the default no-op logger with a console logger on stderr and, if a file is
// configured, a JSON logger appending to that file.
func Init(config Config, debug bool) error {
	level := zapcore.InfoLevel
	if config.Level != "" {
		if err := level.Set(config.Level); err != nil {
			return err
		}
	}

	if debug {
		level = zapcore.DebugLevel
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.TimeKey = "time"
	encoder.MessageKey = "message"

	var console zapcore.Encoder
	if config.Format == "json" {
		console = zapcore.NewJSONEncoder(encoder)
	} else {
		pretty := encoder
		pretty.EncodeLevel = zapcore.CapitalColorLevelEncoder
		console = zapcore.NewConsoleEncoder(pretty)
	}

	atomic := zap.NewAtomicLevelAt(level)
	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.AddSync(os.Stderr), atomic),
	}

	if config.File != "" {
		f, err := os.OpenFile(config.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoder), zapcore.AddSync(f), atomic))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))

	guard.Lock()
	logger = l.Sugar()
	guard.Unlock()

	return nil
}

// With adds structured context (e.g. the run id) to all subsequent log entries.
func With(args ...any) {
	guard.Lock()
	logger = logger.With(args...)
	guard.Unlock()
}

func Sync() {
	get().Sync()
}

func Debugf(format string, args ...any) {
	get().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	get().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	get().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	get().Errorf(format, args...)
}

func get() *zap.SugaredLogger {
	guard.RLock()
	defer guard.RUnlock()

	return logger
}
