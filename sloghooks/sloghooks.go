// Package sloghooks reports client events through log/slog with sampling
// for the noisy ones and key redaction.
package sloghooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	featherquery "github.com/Mehemmed77/FeatherQuery"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	DroppedEvery    uint64
	MaintainedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
	// Prefix of every message. Defaults to "featherquery".
	Prefix string
}

type Hooks struct {
	l      *slog.Logger
	opts   Options
	prefix string

	dropped    atomic.Uint64
	maintained atomic.Uint64
}

var _ featherquery.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "featherquery"
	}
	return &Hooks{l: l, opts: opts, prefix: prefix}
}

func (h *Hooks) key(k string) slog.Attr {
	if h.opts.Redact != nil {
		return slog.String("key", h.opts.Redact(k))
	}
	sum := sha256.Sum256([]byte(k))
	return slog.String("key", hex.EncodeToString(sum[:8]))
}

// every reports whether the n-th call of a sampled event should log.
func every(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) emit(level slog.Level, event string, attrs ...slog.Attr) {
	if h.l == nil {
		return
	}
	h.l.LogAttrs(context.Background(), level, h.prefix+"."+event, attrs...)
}

func (h *Hooks) HydrateFailed(mode string, err error) {
	h.emit(slog.LevelWarn, "hydrate_failed", slog.String("mode", mode), slog.Any("err", err))
}

func (h *Hooks) FlushFailed(mode string, err error) {
	h.emit(slog.LevelError, "flush_failed", slog.String("mode", mode), slog.Any("err", err))
}

func (h *Hooks) Maintained(expired, softEvicted int) {
	if !every(h.opts.MaintainedEvery, &h.maintained) {
		return
	}
	h.emit(slog.LevelDebug, "maintained",
		slog.Int("expired", expired),
		slog.Int("soft_evicted", softEvicted))
}

func (h *Hooks) SelfHeal(key, reason string) {
	h.emit(slog.LevelWarn, "self_heal", h.key(key), slog.String("reason", reason))
}

func (h *Hooks) ResponseDropped(key string, id uint64) {
	if !every(h.opts.DroppedEvery, &h.dropped) {
		return
	}
	h.emit(slog.LevelDebug, "response_dropped", h.key(key), slog.Uint64("id", id))
}

func (h *Hooks) ProducerFailed(key string, err error) {
	h.emit(slog.LevelWarn, "producer_failed", h.key(key), slog.Any("err", err))
}
