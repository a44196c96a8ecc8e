package rangego

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with rangego-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithBatch adds a batch field to the logger.
func (l *Logger) WithBatch(batch int) *Logger {
	return &Logger{
		Logger: l.Logger.With("batch", batch),
	}
}

// WithK adds a k (result capacity) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithRadius adds a radius field to the logger.
func (l *Logger) WithRadius(radius float32) *Logger {
	return &Logger{
		Logger: l.Logger.With("radius", radius),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogIngest logs a point-cloud load operation.
func (l *Logger) LogIngest(ctx context.Context, source string, points, dim int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed",
			"source", source,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "ingest completed",
			"source", source,
			"points", points,
			"dimension", dim,
		)
	}
}

// LogBuild logs an index build operation for one batch.
func (l *Logger) LogBuild(ctx context.Context, batch, points int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"batch", batch,
			"points", points,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index build completed",
			"batch", batch,
			"points", points,
		)
	}
}

// LogSearch logs an all-points query run.
func (l *Logger) LogSearch(ctx context.Context, queries, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"queries", queries,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"queries", queries,
			"k", k,
		)
	}
}

// LogVerify logs a verification pass.
func (l *Logger) LogVerify(ctx context.Context, neighbors, wrong uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "verification failed",
			"error", err,
		)
	} else if wrong > 0 {
		l.WarnContext(ctx, "verification found wrong neighbors",
			"neighbors", neighbors,
			"wrong", wrong,
		)
	} else {
		l.DebugContext(ctx, "verification completed",
			"neighbors", neighbors,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
		)
	}
}
