// Package logging provides structured logging configuration.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration options.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // json|console
}

// New creates a new configured zap logger.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
			return nil, err
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "json"
	}

	var zcfg zap.Config
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("service", "connectrix"))

	return logger, nil
}

// Sync flushes any buffered log entries.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Level:  getenv("CONNECTRIX_LOG_LEVEL", "info"),
		Format: getenv("CONNECTRIX_LOG_FORMAT", "json"),
	}
}

func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Component returns a zap field for the component name.
func Component(name string) zap.Field { return zap.String("component", name) }

// ConnectionID returns a zap field for a connection id.
func ConnectionID(id string) zap.Field { return zap.String("connection_id", id) }

// Integration returns a zap field for an integration id.
func Integration(id string) zap.Field { return zap.String("integration_id", id) }

// AuthMethod returns a zap field for an auth method id.
func AuthMethod(id string) zap.Field { return zap.String("auth_method_id", id) }

// Scheme returns a zap field for an auth scheme key.
func Scheme(key string) zap.Field { return zap.String("scheme", key) }

// Method returns a zap field for an HTTP method.
func Method(method string) zap.Field { return zap.String("method", method) }

// URL returns a zap field for a request URL.
func URL(url string) zap.Field { return zap.String("url", url) }

// StatusCode returns a zap field for an HTTP status code.
func StatusCode(code int) zap.Field { return zap.Int("status_code", code) }

// ErrorKind returns a zap field for a classified error kind.
func ErrorKind(kind string) zap.Field { return zap.String("error_kind", kind) }

// Placeholder returns a zap field for a template placeholder name.
func Placeholder(name string) zap.Field { return zap.String("placeholder", name) }

// Header returns a zap field for an HTTP header name.
func Header(name string) zap.Field { return zap.String("header", name) }

// DurationMS returns a zap field for an elapsed time in milliseconds.
func DurationMS(ms int64) zap.Field { return zap.Int64("duration_ms", ms) }

// Addr returns a zap field for a listen address.
func Addr(addr string) zap.Field { return zap.String("addr", addr) }
