package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapAdapter_Fields(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)

	log.Debug("hidden", nil)
	log.Info("served insights", map[string]interface{}{"count": 20, "store": "fixture"})
	log.Error("load failed", map[string]interface{}{"error": errors.New("fixture missing")})

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "served insights", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"count": int64(20), "store": "fixture"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "fixture missing", entries[1].ContextMap()["error"])
}

func TestZapAdapter_WithFields(t *testing.T) {
	log, logs := observed(zapcore.DebugLevel)

	scoped := log.WithFields(map[string]interface{}{"requestId": "abc"})
	scoped.With(map[string]interface{}{"route": "/x"}).Warn("slow", nil)
	log.WithError(errors.New("boom")).Info("plain", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]interface{}{"requestId": "abc", "route": "/x"}, entries[0].ContextMap())
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNewWithOptions_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	l := NewWithOptions(Options{Level: "info", Format: "json", Output: path})
	l.Info("started", zap.Int("port", 8000))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"started"`)
	assert.Contains(t, string(raw), `"port":8000`)
}

func TestNewWithOptions_BadOutputFallsBack(t *testing.T) {
	l := NewWithOptions(Options{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Error("ignored", map[string]interface{}{"k": "v"})
	assert.NotNil(t, log.WithError(errors.New("x")))
}
