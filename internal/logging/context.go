package logging

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

type loggerKey struct{}

// WithLogger attaches l to ctx. Commands attach the configured logger once in
// the root pre-run; the agent attaches its own when the service starts.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// With attaches a child of the context logger carrying keyvals, so every
// line logged further down the call chain includes them.
func With(ctx context.Context, keyvals ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(keyvals...))
}

// FromContext returns the logger attached to ctx. Library code called
// without one (tests, the widget server's handlers) gets a warn-level logger
// that writes nowhere.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return NewLogger(io.Discard)
}
