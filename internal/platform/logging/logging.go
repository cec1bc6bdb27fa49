// Package logging builds the process zerolog logger and carries request-scoped loggers in a context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	ServiceName string
	Level       string
	Format      string // "json" or "console"
	Output      io.Writer
}

type ctxKey struct{}

// New builds the root logger.
func New(opts Options) zerolog.Logger {
	var output io.Writer = opts.Output
	if output == nil {
		output = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(ParseLevel(opts.Level))
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, &logger)
}

// FromContext returns the logger stored in ctx, or a disabled logger when none is present.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	disabled := zerolog.Nop()
	return &disabled
}

// WithFields returns a context whose logger carries the extra fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	return WithContext(ctx, FromContext(ctx).With().Fields(fields).Logger())
}
