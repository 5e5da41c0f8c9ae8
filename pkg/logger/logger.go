// Package logger wraps log/slog with the configuration and context
// helpers the rest of the service uses.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stdout,
	}
}

// New creates a new Logger.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: redactAttr,
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewDefault creates a Logger with default configuration.
func NewDefault() *Logger {
	return New(DefaultConfig())
}

// NewNop creates a logger that discards all output. For tests.
func NewNop() *Logger {
	return New(Config{Level: "error", Format: "json", Output: io.Discard})
}

// sensitiveKeys lists attribute keys that are masked in logs.
var sensitiveKeys = map[string]bool{
	"password":       true,
	"secret":         true,
	"token":          true,
	"authorization":  true,
	"api_key":        true,
	"apikey":         true,
	"access_token":   true,
	"refresh_token":  true,
	"jwt":            true,
	"cookie":         true,
	"session":        true,
	"dsn":            true,
	"database_url":   true,
	"db_password":    true,
	"redis_password": true,
	"payment_method": true,
	"card_number":    true,
	"credential":     true,
	"credentials":    true,
}

// redactAttr masks sensitive values in log attributes.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] {
		return slog.String(a.Key, "[REDACTED]")
	}
	for sensitive := range sensitiveKeys {
		if strings.Contains(key, sensitive) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithError returns a new Logger carrying the error attribute.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Any("error", err))}
}

// SetDefault installs this logger as the default slog logger.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKey string

const loggerKey contextKey = "logger"

// ToContext stores the logger in the context.
func ToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from the context, falling back to the
// default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return NewDefault()
}
