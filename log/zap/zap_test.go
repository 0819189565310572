package zap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	featherquery "github.com/Mehemmed77/FeatherQuery"
)

func TestLoggerFieldsAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.With(featherquery.Fields{"key": `["users",1]`}).
		Warn("producer failed", featherquery.Fields{"id": uint64(3), "err": errors.New("boom")})
	l.Debug("volatile maintenance", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, zapcore.WarnLevel, first.Level)
	assert.Equal(t, "featherquery", first.LoggerName)
	ctx := first.ContextMap()
	assert.Equal(t, `["users",1]`, ctx["key"])
	assert.Equal(t, uint64(3), ctx["id"])
	assert.Equal(t, "boom", ctx["err"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Empty(t, entries[1].Context)
}
