package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "test")

	log.Info("offer list normalized", "count", 3)
	log.Error("quote request failed", errors.New("boom"), "status", 502)
	log.Debug("detail")

	entries := logs.All()
	require.Len(t, entries, 3)

	info := entries[0].ContextMap()
	assert.Equal(t, "test", info["component"])
	assert.EqualValues(t, 3, info["count"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	errFields := entries[1].ContextMap()
	assert.Equal(t, "boom", errFields["error"])
	assert.EqualValues(t, 502, errFields["status"])
}

func TestNew(t *testing.T) {
	l, err := New("warn", "json")
	require.NoError(t, err)
	assert.NotNil(t, l)

	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Warn("ignored", "k", "v")
	})
}
