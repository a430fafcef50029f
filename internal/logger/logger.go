// Package logger wraps zap with key/value helpers that keep credentials
// and addresses out of the logs.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a development logger, or a JSON production logger when mode is "prod"
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// NewWithCore builds a logger on an existing core
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.write(zapcore.DebugLevel, msg, keysAndValues)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.write(zapcore.InfoLevel, msg, keysAndValues)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.write(zapcore.WarnLevel, msg, keysAndValues)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.write(zapcore.ErrorLevel, msg, keysAndValues)
}

// With returns a child logger carrying the sanitised fields on every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(sanitizeKVs(keysAndValues)...)}
}

func (l *Logger) write(level zapcore.Level, msg string, kv []interface{}) {
	l.SugaredLogger.Logw(level, msg, sanitizeKVs(kv)...)
}

// sanitizeKVs rewrites the value of every sensitive key. A trailing key
// without a value is passed through for zap to report.
func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key := fieldName(out[i])
		out[i] = key
		out[i+1] = sanitizeValue(strings.ToLower(key), out[i+1])
	}
	return out
}

func sanitizeValue(key string, val interface{}) interface{} {
	if isRedactKey(key) {
		return "[REDACTED]"
	}
	if isMaskKey(key) {
		return maskEmail(fmt.Sprint(val))
	}
	return val
}

func isRedactKey(key string) bool {
	switch {
	case strings.Contains(key, "token"),
		strings.Contains(key, "password"),
		strings.Contains(key, "secret"),
		strings.Contains(key, "api_key"),
		strings.Contains(key, "chat_id"):
		return true
	default:
		return false
	}
}

func isMaskKey(key string) bool {
	return strings.Contains(key, "email") || key == "to" || key == "from"
}

// maskEmail keeps the domain and first letter of the local part
func maskEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "[REDACTED]"
	}
	return addr[:1] + "***" + addr[at:]
}

func fieldName(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
