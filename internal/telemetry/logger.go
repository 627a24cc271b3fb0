package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"teacher-assistant-bot/internal/config"
)

// NewLogger writes to stdout (console format unless JSON is set) and, when a file is
// configured, to a size-rotated log file.
func NewLogger(cfg config.Log) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg config.Log, stdout io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	console := stdout
	if !cfg.JSON {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	var out io.Writer = console
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    ifZero(cfg.MaxSizeMB, 10),
			MaxBackups: ifZero(cfg.MaxBackups, 3),
			MaxAge:     ifZero(cfg.MaxAgeDays, 28),
			Compress:   cfg.Compress,
		}
		out = zerolog.MultiLevelWriter(console, rotator)
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "teacher-assistant-bot").Logger()
}

func ifZero(v, d int) int {
	if v == 0 {
		return d
	}
	return v
}
