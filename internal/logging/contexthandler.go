package logging

import (
	"context"
	"log/slog"

	"github.com/myrjola/gumshoe/internal/errors"
)

type contextKey string

const slogAttrs contextKey = "slogAttrs"

type ContextHandler struct {
	slog.Handler
}

// NewContextHandler constructs a ContextHandler that adds new [slog.Attr] to the log messages from [context.Context]
// to the underlying [slog.Handler].
func NewContextHandler(h slog.Handler) ContextHandler {
	return ContextHandler{Handler: h}
}

// Handle enriches the log record with [slog.Attr] stored in context with [WithAttrs].
func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(Attrs(ctx)...)

	if err := h.Handler.Handle(ctx, r); err != nil {
		return errors.Wrap(err, "handle log record")
	}
	return nil
}

// WithAttrs keeps the context enrichment when loggers are derived with [slog.Logger.With].
func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the context enrichment when loggers are derived with [slog.Logger.WithGroup].
func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}

// WithAttrs adds [...slog.Attr] to the [context.Context] that enriches the log messages handled by [ContextHandler].
func WithAttrs(ctx context.Context, attr ...slog.Attr) context.Context {
	existing := Attrs(ctx)
	// Copy so that sibling contexts never share the backing array.
	merged := make([]slog.Attr, 0, len(existing)+len(attr))
	merged = append(merged, existing...)
	merged = append(merged, attr...)
	return context.WithValue(ctx, slogAttrs, merged)
}

// Attrs returns the attributes added to ctx with [WithAttrs].
func Attrs(ctx context.Context) []slog.Attr {
	if attrs, ok := ctx.Value(slogAttrs).([]slog.Attr); ok {
		return attrs
	}
	return nil
}
