package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// Module tags every log line with the subsystem that emitted it.
type Module string

type contextKey string

const requestIDKey contextKey = "request_id"

// NewLogger builds the process-wide slog logger: JSON in prod, text in dev.
func NewLogger(env Environment, level slog.Level, module Module) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if env == EnvProd {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(slog.String("module", string(module)))
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ValidateAndExtractRequestID returns the given request id, or a fresh one
// when the caller did not supply any.
func ValidateAndExtractRequestID(requestID string) string {
	if requestID == "" {
		return uuid.NewString()
	}
	return requestID
}
