/*
Package logger wraps zerolog so every component of the relay library logs the same way.
Loggers are hierarchical: a component or connection logger carries the fields of its
parent plus its own, so a single line can be traced back to the connection it came from.
*/
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	componentField  = "component"
	connectionField = "connectionId"
	versionField    = "version"

	// lumberjack rotation settings, in megabytes and days
	maxLogFileSize    = 50
	maxLogFileBackups = 3
	maxLogFileAge     = 28
)

type Config struct {
	// If set, logs are also written to this file and rotated
	FilePath string

	// Human-readable output, usually os.Stdout
	ConsoleWriters []io.Writer

	LogLevel zerolog.Level
}

type Logger struct {
	logger zerolog.Logger
}

func New(config *Config) (*Logger, error) {
	writers := []io.Writer{}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create log directory for %s: %w", config.FilePath, err)
		}

		writers = append(writers, &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    maxLogFileSize,
			MaxBackups: maxLogFileBackups,
			MaxAge:     maxLogFileAge,
		})
	}

	for _, writer := range config.ConsoleWriters {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(config.LogLevel).
		With().
		Timestamp().
		Logger()

	return &Logger{logger: zl}, nil
}

// ToLogLevel parses a level name and falls back to info for anything it doesn't recognize
func ToLogLevel(level string) zerolog.Level {
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && parsed != zerolog.NoLevel {
		return parsed
	}
	return zerolog.InfoLevel
}

func (l *Logger) GetComponentLogger(component string) *Logger {
	return &Logger{
		logger: l.logger.With().Str(componentField, component).Logger(),
	}
}

func (l *Logger) GetConnectionLogger(connectionId string) *Logger {
	return &Logger{
		logger: l.logger.With().Str(connectionField, connectionId).Logger(),
	}
}

// With returns a child logger carrying one extra string field
func (l *Logger) With(key string, value string) *Logger {
	return &Logger{
		logger: l.logger.With().Str(key, value).Logger(),
	}
}

func (l *Logger) AddVersion(version string) {
	l.logger = l.logger.With().Str(versionField, version).Logger()
}

func (l *Logger) Trace(msg string) {
	l.logger.Trace().Msg(msg)
}

func (l *Logger) Tracef(format string, a ...interface{}) {
	l.logger.Trace().Msgf(format, a...)
}

func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *Logger) Debugf(format string, a ...interface{}) {
	l.logger.Debug().Msgf(format, a...)
}

func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *Logger) Infof(format string, a ...interface{}) {
	l.logger.Info().Msgf(format, a...)
}

func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *Logger) Warnf(format string, a ...interface{}) {
	l.logger.Warn().Msgf(format, a...)
}

func (l *Logger) Error(err error) {
	l.logger.Error().Msg(err.Error())
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	l.logger.Error().Msgf(format, a...)
}
