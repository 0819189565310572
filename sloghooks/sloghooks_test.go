package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBuffered(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestKeysAreRedacted(t *testing.T) {
	h, buf := newBuffered(Options{})
	h.SelfHeal(`["users","secret@example.com"]`, "value_decode")

	out := buf.String()
	assert.Contains(t, out, "featherquery.self_heal")
	assert.Contains(t, out, "reason=value_decode")
	assert.NotContains(t, out, "secret@example.com")
}

func TestCustomRedactor(t *testing.T) {
	h, buf := newBuffered(Options{Redact: func(string) string { return "REDACTED" }})
	h.ProducerFailed("k", errors.New("boom"))
	assert.Contains(t, buf.String(), "key=REDACTED")
	assert.Contains(t, buf.String(), "err=boom")
}

func TestDroppedSampling(t *testing.T) {
	h, buf := newBuffered(Options{DroppedEvery: 3})
	for i := 0; i < 9; i++ {
		h.ResponseDropped("k", uint64(i))
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "featherquery.response_dropped"))
}

func TestNilLoggerIsSilent(t *testing.T) {
	h := New(nil, Options{})
	h.FlushFailed("session", errors.New("x"))
	h.HydrateFailed("session", errors.New("x"))
	h.Maintained(1, 1)
}

func TestPrefix(t *testing.T) {
	h, buf := newBuffered(Options{Prefix: "app.cache"})
	h.FlushFailed("permanent", errors.New("disk full"))
	assert.Contains(t, buf.String(), "app.cache.flush_failed")
	assert.Contains(t, buf.String(), "mode=permanent")
}
