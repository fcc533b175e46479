package galago

import (
	"context"
	"log/slog"
	"os"

	"github.com/dragonsim/galago/mtree"
)

// Logger wraps slog.Logger with galago-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSnapshot adds a snapshot field to the logger.
func (l *Logger) WithSnapshot(snapshot int) *Logger {
	return &Logger{
		Logger: l.Logger.With("snapshot", snapshot),
	}
}

// WithGalaxyID adds a galaxy ID field to the logger.
func (l *Logger) WithGalaxyID(id int64) *Logger {
	return &Logger{
		Logger: l.Logger.With("galaxy_id", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogRead logs a galaxy read operation.
func (l *Logger) LogRead(ctx context.Context, snapshot, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"snapshot", snapshot,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"snapshot", snapshot,
			"count", count,
		)
	}
}

// LogStitch logs a link-stitching operation.
func (l *Logger) LogStitch(ctx context.Context, snapshot int, kind mtree.LinkKind, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stitch failed",
			"snapshot", snapshot,
			"kind", kind.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "stitch completed",
			"snapshot", snapshot,
			"kind", kind.String(),
		)
	}
}

// LogHistory logs a lineage traversal.
func (l *Logger) LogHistory(ctx context.Context, startSnapshot, futureSnapshot, populated int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "history traversal failed",
			"start_snapshot", startSnapshot,
			"future_snapshot", futureSnapshot,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "history traversal completed",
			"start_snapshot", startSnapshot,
			"future_snapshot", futureSnapshot,
			"populated", populated,
		)
	}
}
