package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featherquery "github.com/Mehemmed77/FeatherQuery"
)

func TestLoggerFieldsAndWith(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug})
	var l featherquery.Logger = Logger{L: stdslog.New(h)}

	l.With(featherquery.Fields{"key": "k"}).Info("committed", featherquery.Fields{"id": 2})
	l.Debug("plain", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "committed", first["msg"])
	assert.Equal(t, "k", first["key"])
	assert.Equal(t, float64(2), first["id"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.NotContains(t, second, "key")
}
