package services

import (
	"context"
	"fmt"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// BaseService provides common functionality for all services
type BaseService struct {
	// Logger is used when the context carries no request logger, e.g. for
	// work started by a timer.
	Logger *zap.Logger
}

// GetLogger gets the logger from context or returns the fallback one
func (s *BaseService) GetLogger(ctx context.Context) *zap.Logger {
	if logger := middleware.GetLoggerFromCtx(ctx); logger != nil {
		return logger
	}
	if s.Logger != nil {
		return s.Logger
	}
	return zap.L()
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, fields ...zap.Field) {
	s.GetLogger(ctx).Error(msg, append([]zap.Field{zap.Error(err)}, fields...)...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, fields ...zap.Field) {
	s.GetLogger(ctx).Warn(msg, fields...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, fields ...zap.Field) {
	s.GetLogger(ctx).Info(msg, fields...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, fields ...zap.Field) {
	s.GetLogger(ctx).Debug(msg, fields...)
}

// validateRequest runs the struct validation tags of a request.
func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}
