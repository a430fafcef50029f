package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	tests := []struct {
		name string
		in   []interface{}
		want []interface{}
	}{
		{"empty", nil, nil},
		{"plain", []interface{}{"due", 3}, []interface{}{"due", 3}},
		{"token", []interface{}{"bot_token", "abc"}, []interface{}{"bot_token", "[REDACTED]"}},
		{"chat id", []interface{}{"chat_id", int64(42)}, []interface{}{"chat_id", "[REDACTED]"}},
		{"email masked", []interface{}{"to", "learner@example.com"}, []interface{}{"to", "l***@example.com"}},
		{"not an address", []interface{}{"email", "nobody"}, []interface{}{"email", "[REDACTED]"}},
		{"dangling key", []interface{}{"a", 1, "b"}, []interface{}{"a", 1, "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeKVs(tt.in))
		})
	}
}

func TestLoggerWritesSanitizedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewWithCore(core).With("component", "test")

	log.Info("reminder sent", "to", "someone@example.com", "due", 4)
	log.Error("send failed", "bot_token", "secret-value")

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "test", first["component"])
	assert.Equal(t, "s***@example.com", first["to"])
	assert.EqualValues(t, 4, first["due"])

	assert.Equal(t, "[REDACTED]", entries[1].ContextMap()["bot_token"])
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewWithCore(core)

	log.Debug("d")
	log.Info("i")
	log.Warn("w", "api_key", "k")
	log.Error("e")

	entries := logs.All()
	require.Len(t, entries, 4)
	want := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		assert.Equal(t, want[i], e.Level, e.Message)
	}
	assert.Equal(t, "[REDACTED]", entries[2].ContextMap()["api_key"])
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		log, err := New(mode)
		require.NoError(t, err)
		require.NotNil(t, log.SugaredLogger)
	}
	NewNop().Info("discarded")
}
