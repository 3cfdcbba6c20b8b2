package utils

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the logging interface used across handlers and services.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// SlogLogger adapts *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) Logger {
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

type loggerContextKey struct{}

// ContextLogger attaches a request-scoped logger (carrying request_id) to the
// gin context so downstream code can log with correlation.
func ContextLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestLogger := logger
		if requestID, exists := c.Get("request_id"); exists {
			requestLogger = logger.With("request_id", requestID)
		}
		ctx := context.WithValue(c.Request.Context(), loggerContextKey{}, requestLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// FromContext returns the request-scoped logger, or the fallback if none is set.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(Logger); ok {
		return logger
	}
	return fallback
}

// LoggerMiddleware logs one line per request with latency and status.
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("request completed",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
