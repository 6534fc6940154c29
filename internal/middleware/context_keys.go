package middleware

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is the type of the keys this package stores in a context.
// Using a custom type prevents collisions.
type contextKey string

const loggerCtxKey = contextKey("logger")

// WithLogger returns a copy of ctx carrying the logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

// GetLoggerFromCtx retrieves the request-scoped logger from a standard context.
// It returns nil if none is stored.
func GetLoggerFromCtx(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerCtxKey).(*zap.Logger)
	return logger
}
