// Package logger provides structured logging for fedledger.
// A single *Logger is built at startup from the resolved settings and
// passed to every component that logs; there is no package-level logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a key-value pair attached to a log entry.
type Field = zap.Field

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to warn.
	Level string

	// JSON selects the JSON encoder instead of the console encoder.
	JSON bool

	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer
}

// Logger writes leveled, structured log entries.
type Logger struct {
	z *zap.Logger
}

// New builds a logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.TimeKey = "ts"

	var enc zapcore.Encoder
	if cfg.JSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(out)), zap.NewAtomicLevelAt(level))
	return &Logger{z: zap.New(core)}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "", "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.WarnLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }

// Info logs a message at info level.
func (l *Logger) Info(msg string, fields ...Field) { l.z.Info(msg, fields...) }

// Warn logs a message at warning level.
func (l *Logger) Warn(msg string, fields ...Field) { l.z.Warn(msg, fields...) }

// Error logs a message at error level.
func (l *Logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level zapcore.Level) bool {
	return l.z.Core().Enabled(level)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// String builds a string field.
func String(key, value string) Field { return zap.String(key, value) }

// Int builds an int field.
func Int(key string, value int) Field { return zap.Int(key, value) }

// Int64 builds an int64 field.
func Int64(key string, value int64) Field { return zap.Int64(key, value) }

// Bool builds a bool field.
func Bool(key string, value bool) Field { return zap.Bool(key, value) }

// Duration builds a duration field.
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

// Strings builds a string list field.
func Strings(key string, value []string) Field { return zap.Strings(key, value) }

// Err builds an "error" field.
func Err(err error) Field { return zap.Error(err) }

// DocID builds the doc_id field carried by per-document log entries.
func DocID(id fmt.Stringer) Field { return zap.Stringer("doc_id", id) }

// DocType builds the doc_type field.
func DocType(t fmt.Stringer) Field { return zap.Stringer("doc_type", t) }
