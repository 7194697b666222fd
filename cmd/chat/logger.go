package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"llm-chat-client/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logSinks is the set of destinations named by log.output.
// Files are rotated by lumberjack and must be closed on exit.
type logSinks struct {
	writers []io.Writer
	files   []*lumberjack.Logger
}

// openLogSinks resolves a comma separated output list. stdout and stderr map to
// the command's own streams; anything else is a file path. Repeated entries
// are opened once and an empty list falls back to stderr.
func openLogSinks(cfg config.LogConfig, stdout, stderr io.Writer) *logSinks {
	sinks := &logSinks{}
	seen := make(map[string]bool)

	for _, name := range strings.Split(cfg.Output, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "stdout":
			sinks.writers = append(sinks.writers, stdout)
		case "stderr":
			sinks.writers = append(sinks.writers, stderr)
		default:
			file := &lumberjack.Logger{
				Filename:   name,
				MaxSize:    cfg.Rotation.MaxSize,
				MaxBackups: cfg.Rotation.MaxBackups,
				MaxAge:     cfg.Rotation.MaxAge,
				Compress:   cfg.Rotation.Compress,
			}
			sinks.files = append(sinks.files, file)
			sinks.writers = append(sinks.writers, file)
		}
	}

	if len(sinks.writers) == 0 {
		sinks.writers = []io.Writer{stderr}
	}
	return sinks
}

func (s *logSinks) writer() io.Writer {
	if len(s.writers) == 1 {
		return s.writers[0]
	}
	return io.MultiWriter(s.writers...)
}

// Close flushes and closes every rotated file
func (s *logSinks) Close() error {
	var errs []error
	for _, f := range s.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// setupLogger builds the process logger from cfg.Log. The returned func
// releases any log files and is safe to call more than once.
func setupLogger(cfg *config.Config, stdout, stderr io.Writer) (*slog.Logger, func()) {
	sinks := openLogSinks(cfg.Log, stdout, stderr)
	opts := &slog.HandlerOptions{Level: cfg.GetLogLevel()}

	var handler slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(sinks.writer(), opts)
	default:
		handler = slog.NewTextHandler(sinks.writer(), opts)
	}

	return slog.New(handler), func() { sinks.Close() }
}
