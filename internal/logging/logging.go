package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger writing to stdout.
// level is one of trace|debug|info|warn|error, format is json|console.
func New(level, format string) (*zerolog.Logger, error) {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, level, format string) (*zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if strings.ToLower(format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &l, nil
}

// Nop returns a logger that discards everything; handy in tests
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type ctxKey string

const ctxTraceID ctxKey = "trace_id"

// WithTraceID stores the request trace id in ctx
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}

// TraceID returns the trace id stored in ctx, if any
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxTraceID).(string); ok {
		return v
	}
	return ""
}

// With attaches context fields such as trace_id to base
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if id := TraceID(ctx); id != "" {
		l = l.Str("trace_id", id)
	}
	logger := l.Logger()
	return &logger
}

// MaskContact masks an email or phone number for logging (e.g. 79******67, us***@example.com)
func MaskContact(contact string) string {
	if at := strings.LastIndex(contact, "@"); at >= 0 {
		local, domain := contact[:at], contact[at:]
		if len(local) <= 2 {
			return "***" + domain
		}
		return local[:2] + strings.Repeat("*", len(local)-2) + domain
	}
	if len(contact) <= 4 {
		return "****"
	}
	return contact[:2] + strings.Repeat("*", len(contact)-4) + contact[len(contact)-2:]
}
