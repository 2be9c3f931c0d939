package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// New builds the application logger. Production emits JSON lines, every other
// environment gets a human readable console writer.
func New(appName, env string) zerolog.Logger {
	return NewWithWriter(os.Stdout, appName, env)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(out io.Writer, appName, env string) zerolog.Logger {
	level := zerolog.DebugLevel
	if env == "production" {
		level = zerolog.InfoLevel
	} else {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339Nano,
		}
	}
	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("app", appName).
		Str("env", env).
		Logger()
}

// FromContext returns the request-scoped logger, or a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return zerolog.Nop()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// IntoContext injects a logger into context for downstream use.
func IntoContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}
