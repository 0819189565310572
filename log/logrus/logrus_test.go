package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featherquery "github.com/Mehemmed77/FeatherQuery"
)

func TestLoggerFieldsAndWith(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	boom := errors.New("boom")
	l.With(featherquery.Fields{"mode": "session"}).Error("store flush failed", featherquery.Fields{"err": boom})
	l.Info("ready", nil)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, logrus.ErrorLevel, e.Level)
	assert.Equal(t, "store flush failed", e.Message)
	assert.Equal(t, "featherquery", e.Data["component"])
	assert.Equal(t, "session", e.Data["mode"])
	assert.Equal(t, boom, e.Data[logrus.ErrorKey])

	assert.Equal(t, logrus.InfoLevel, entries[1].Level)
	assert.NotContains(t, entries[1].Data, "mode")
}
