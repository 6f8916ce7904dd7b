package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type contextKey string

const (
	CorrelatedIDKey     contextKey = "correlation_id"
	LoggerKeyForContext contextKey = "logger"
)

type Logger struct {
	*slog.Logger
}

func NewLoggerWithJSONOutput() *Logger {
	return NewLogger(os.Stdout)
}

// NewLogger writes JSON records to w. Tests pass io.Discard.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, nil)),
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	return l.With(string(CorrelatedIDKey), GetOrGenerateCorrelationID(ctx))
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelatedIDKey, id)
}

func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerKeyForContext, logger)
}

func GetOrGenerateCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if s, ok := ctx.Value(CorrelatedIDKey).(string); ok && s != "" {
			return s
		}
	}

	return GenerateCorrelationID()
}

func GenerateCorrelationID() string {
	return uuid.New().String()
}

// GetLoggerInstanceFromContext prefers the request-scoped logger injected by
// the router and otherwise correlates the fallback with the context.
func GetLoggerInstanceFromContext(ctx context.Context, fallbackLogger *Logger) *Logger {
	if fallbackLogger == nil {
		fallbackLogger = NewLoggerWithJSONOutput()
	}

	if ctx == nil {
		return fallbackLogger
	}

	if l, ok := ctx.Value(LoggerKeyForContext).(*Logger); ok && l != nil {
		return l
	}

	return fallbackLogger.WithCorrelationID(ctx)
}
