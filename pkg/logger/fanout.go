package logger

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler delivers every record to all wrapped handlers.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler combines handlers into a single slog.Handler.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

// Enabled reports true when any wrapped handler accepts the level.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, next := range h.handlers {
		if next.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// WithAttrs returns a fanout over handlers carrying the extra attributes.
func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Handler, len(h.handlers))
	for i, next := range h.handlers {
		wrapped[i] = next.WithAttrs(attrs)
	}

	return &FanoutHandler{handlers: wrapped}
}

// WithGroup returns a fanout over handlers carrying the group name.
func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	wrapped := make([]slog.Handler, len(h.handlers))
	for i, next := range h.handlers {
		wrapped[i] = next.WithGroup(name)
	}

	return &FanoutHandler{handlers: wrapped}
}

// Handle delivers the record to every handler that accepts its level.
func (h *FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, next := range h.handlers {
		if !next.Enabled(ctx, record.Level) {
			continue
		}

		if err := next.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
