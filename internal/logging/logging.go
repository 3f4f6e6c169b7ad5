// Package logging configures the service logger and carries a
// request-scoped logger through context.Context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"pkt.systems/pslog"
)

// New builds the structured service logger. Unknown levels fall back to info.
func New(level, version string) pslog.Logger {
	return NewWithWriter(os.Stderr, level, version)
}

func NewWithWriter(w io.Writer, level, version string) pslog.Logger {
	logger := pslog.NewStructured(w).With("app", "folio", "version", version)
	if lvl, ok := pslog.ParseLevel(strings.TrimSpace(strings.ToLower(level))); ok {
		logger = logger.LogLevel(lvl)
	}
	return logger
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger pslog.Logger) context.Context {
	return pslog.ContextWithLogger(ctx, logger)
}

// FromContext returns the request logger, or a no-op logger when none was set.
func FromContext(ctx context.Context) pslog.Logger {
	if ctx != nil {
		if logger := pslog.LoggerFromContext(ctx); logger != nil {
			return logger
		}
	}
	return pslog.NoopLogger()
}
