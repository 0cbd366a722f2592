package conceptspace

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/hupe1980/conceptspace/model"
	"github.com/hupe1980/conceptspace/region"
)

// Logger wraps slog.Logger with conceptspace-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithSpace adds a space field to the logger.
func (l *Logger) WithSpace(id uuid.UUID) *Logger {
	return &Logger{Logger: l.Logger.With("space", id.String())}
}

// WithConcept adds a concept field to the logger.
func (l *Logger) WithConcept(id model.ConceptID) *Logger {
	return &Logger{Logger: l.Logger.With("concept", string(id))}
}

// WithRegion adds a region field to the logger.
func (l *Logger) WithRegion(id region.ID) *Logger {
	return &Logger{Logger: l.Logger.With("region", id.String())}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, id model.ConceptID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "concept", id, "error", err)
		return
	}
	l.DebugContext(ctx, "insert completed", "concept", id)
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(ctx context.Context, id model.ConceptID, touched int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed", "concept", id, "error", err)
		return
	}
	l.DebugContext(ctx, "update completed", "concept", id, "regions_touched", touched)
}

// LogRemove logs a remove operation and its cascade.
func (l *Logger) LogRemove(ctx context.Context, id model.ConceptID, dissolved int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove failed", "concept", id, "error", err)
		return
	}
	if dissolved > 0 {
		l.InfoContext(ctx, "remove dissolved regions", "concept", id, "dissolved", dissolved)
		return
	}
	l.DebugContext(ctx, "remove completed", "concept", id)
}

// LogSearch logs a k-nearest or range query.
func (l *Logger) LogSearch(ctx context.Context, op string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "op", op, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "op", op, "results", results)
}

// LogRegion logs a region operation.
func (l *Logger) LogRegion(ctx context.Context, op string, id region.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "region operation failed", "op", op, "error", err)
		return
	}
	l.DebugContext(ctx, "region operation completed", "op", op, "region", id.String())
}

// LogTessellation logs a diagram rebuild.
func (l *Logger) LogTessellation(ctx context.Context, cells int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tessellation failed", "error", err)
		return
	}
	l.DebugContext(ctx, "tessellation rebuilt", "cells", cells)
}

// LogDiscover logs a cluster discovery run.
func (l *Logger) LogDiscover(ctx context.Context, candidates, proposals int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "discover failed", "candidates", candidates, "error", err)
		return
	}
	l.DebugContext(ctx, "discover completed", "candidates", candidates, "proposals", proposals)
}

// LogWeights logs a weight change.
func (l *Logger) LogWeights(ctx context.Context, source string, version uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "weight change failed", "source", source, "error", err)
		return
	}
	l.InfoContext(ctx, "weights changed", "source", source, "version", version)
}
