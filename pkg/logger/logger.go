// Package logger wraps zerolog with context-carried fields so request, view
// and product identifiers follow a call through every layer.
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Options struct {
	ServiceName string
	Level       zerolog.Level
	// WarnStack attaches a stack trace to warnings as well as errors.
	WarnStack bool
	// Format is FormatJSON (default) or FormatConsole.
	Format string
	Output io.Writer
}

type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), FormatConsole) {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	return &Logger{
		base: zerolog.New(output).
			With().
			Timestamp().
			Str("service", opts.ServiceName).
			Logger().
			Level(opts.Level),
		warnStack: opts.WarnStack,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Options{Level: zerolog.Disabled, Output: io.Discard})
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) from(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
			return entry
		}
	}
	return l.base
}

func (l *Logger) with(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, build(l.from(ctx).With()).Logger())
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithViewID(ctx context.Context, viewID string) context.Context {
	return l.WithField(ctx, "view_id", viewID)
}

func (l *Logger) WithProductID(ctx context.Context, productID string) context.Context {
	return l.WithField(ctx, "product_id", productID)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	entry := l.from(ctx)
	entry.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	entry := l.from(ctx)
	entry.Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	entry := l.from(ctx)
	event := entry.Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error logs err with a stack trace. Coded errors also carry their code.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	entry := l.from(ctx)
	event := entry.Error()
	if err != nil {
		event = event.Err(err)
		if typed := pkgerrors.As(err); typed != nil {
			event = event.Str("code", string(typed.Code()))
		}
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
