package command

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/logging"
)

// logFlags are the logging flags shared by commands that load scripts.
type logFlags struct {
	file   string
	level  string
	buffer int
}

func (f *logFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "log-file", "", "Write JSON logs to this file (rotated)")
	fs.StringVar(&f.level, "log-level", "", "Log level: debug, info, warn, error")
	fs.IntVar(&f.buffer, "log-buffer", 0, "In-memory log entries kept for the overlay")
}

// logConfig holds resolved logging configuration.
type logConfig struct {
	level      slog.Level
	logFile    io.WriteCloser // nil if no file logging
	bufferSize int
}

// resolveLogConfig resolves logging settings: flag, then config (which
// includes env overrides), then defaults. The caller closes logFile.
func resolveLogConfig(flags logFlags, cfg *config.Config) (logConfig, error) {
	var lc logConfig

	levelStr := flags.level
	if levelStr == "" {
		levelStr = cfg.GetString(config.KeyLogLevel)
	}
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return lc, err
	}
	lc.level = level

	lc.bufferSize = flags.buffer
	if lc.bufferSize <= 0 {
		lc.bufferSize = cfg.GetInt(config.KeyLogBufferSize)
	}

	logPath := flags.file
	if logPath == "" {
		logPath = cfg.ResolvePath(config.KeyLogFile)
	}
	if logPath != "" {
		maxSizeMB := cfg.GetInt(config.KeyLogMaxSizeMB)
		if maxSizeMB <= 0 {
			maxSizeMB = 10
		}
		maxFiles := max(cfg.GetInt(config.KeyLogMaxFiles), 0)
		w, err := logging.OpenRotatingFile(logPath, maxSizeMB, maxFiles)
		if err != nil {
			return lc, fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		lc.logFile = w
	}
	return lc, nil
}

func (lc logConfig) newLogger() *logging.Logger {
	opts := logging.Options{Level: lc.level, BufferSize: lc.bufferSize}
	if lc.logFile != nil {
		opts.File = lc.logFile
	}
	return logging.New(opts)
}
