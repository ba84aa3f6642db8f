package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum level for stderr output (debug, info, warn, error).
	Level string
	// FilePath enables JSON file logging at debug level. Empty disables it.
	FilePath string
	// MaxSizeMB is the file size that triggers rotation (default: 10).
	MaxSizeMB int
	// MaxFiles is the number of rotated files kept (default: 5).
	MaxFiles int
	// Stderr receives text records; nil selects os.Stderr.
	Stderr io.Writer
}

// DefaultConfig logs info and above to stderr only.
func DefaultConfig() Config {
	return Config{Level: "info", MaxSizeMB: 10, MaxFiles: 5}
}

// DebugConfig adds the rotating debug file.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.FilePath = DefaultLogPath()
	return cfg
}

// Setup builds a logger from cfg and returns it with a cleanup function
// that flushes and closes the log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})

	if cfg.FilePath == "" {
		return slog.New(textHandler), func() {}, nil
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}
	jsonHandler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug})

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return slog.New(fanout{jsonHandler, textHandler}), cleanup, nil
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
