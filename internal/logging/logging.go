package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the root logger at the configured level, installs it as the
// slog default, and returns it. Unrecognized level strings fall back to info
// rather than failing startup. Subsystems derive their own child via
// Component.
func Setup(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Component returns a child logger tagged with the subsystem name, so every
// line it emits can be filtered by component.
func Component(parent *slog.Logger, name string) *slog.Logger {
	return parent.With("component", name)
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
