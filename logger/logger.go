// Package logger builds the process zap logger.
package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config mirrors the log section of config.yaml.
type Config struct {
	Level string `yaml:"level"`
	// Format is "json", "console" or "auto" (console when stdout is a terminal).
	Format     string `yaml:"format"`
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// New builds a logger writing to stdout and, when Filename is set, to a
// rolling file. The returned logger should be synced before exit.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}

	consoleCore := zapcore.NewCore(stdoutEncoder(cfg.Format), zapcore.Lock(os.Stdout), level)
	if cfg.Filename == "" {
		return zap.New(consoleCore, zap.AddCaller()), nil
	}

	fileCore := zapcore.NewCore(jsonEncoder(), fileWriter(cfg), level)
	return zap.New(zapcore.NewTee(consoleCore, fileCore), zap.AddCaller()), nil
}

// encoderConfig uses ISO8601 times and upper-case levels.
func encoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return encoderConfig
}

// jsonEncoder is used for files and non-terminal stdout.
func jsonEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(encoderConfig())
}

// stdoutEncoder resolves the configured format.
func stdoutEncoder(format string) zapcore.Encoder {
	switch strings.ToLower(format) {
	case "console":
		return zapcore.NewConsoleEncoder(encoderConfig())
	case "", "auto":
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return zapcore.NewConsoleEncoder(encoderConfig())
		}
	}
	return jsonEncoder()
}

// fileWriter is a buffered lumberjack writer.
func fileWriter(cfg Config) zapcore.WriteSyncer {
	rolling := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return &zapcore.BufferedWriteSyncer{
		WS:            zapcore.AddSync(rolling),
		Size:          256 * 1024,
		FlushInterval: 5 * time.Second,
	}
}
