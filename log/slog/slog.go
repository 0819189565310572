// Package slog adapts a *slog.Logger to featherquery.Logger.
package slog

import (
	"context"
	stdslog "log/slog"

	featherquery "github.com/Mehemmed77/FeatherQuery"
)

var _ featherquery.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(msg string, f featherquery.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelDebug, msg, attrs(f)...)
}
func (s Logger) Info(msg string, f featherquery.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelInfo, msg, attrs(f)...)
}
func (s Logger) Warn(msg string, f featherquery.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelWarn, msg, attrs(f)...)
}
func (s Logger) Error(msg string, f featherquery.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelError, msg, attrs(f)...)
}

func (s Logger) With(f featherquery.Fields) featherquery.Logger {
	a := attrs(f)
	args := make([]any, len(a))
	for i := range a {
		args[i] = a[i]
	}
	return Logger{L: s.L.With(args...)}
}

func attrs(f featherquery.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
