// Package notify adapts the host's notification surface. Headless runs log;
// the IDE swaps in its own port.Notifier.
package notify

import (
	"context"
	"log/slog"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
)

// Logger emits notifications through slog.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (n *Logger) Notify(ctx context.Context, sev port.Severity, message string) {
	level := slog.LevelInfo
	switch sev {
	case port.SeverityWarn:
		level = slog.LevelWarn
	case port.SeverityError:
		level = slog.LevelError
	}
	n.logger.LogAttrs(ctx, level, "notification", slog.String("message", message))
}

// Noop discards all notifications.
type Noop struct{}

func (Noop) Notify(context.Context, port.Severity, string) {}
