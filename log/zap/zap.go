// Package zap adapts a *zap.Logger to featherquery.Logger.
package zap

import (
	featherquery "github.com/Mehemmed77/FeatherQuery"
	"go.uber.org/zap"
)

var _ featherquery.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New wraps l, naming it "featherquery".
func New(l *zap.Logger) Logger { return Logger{L: l.Named("featherquery")} }

func (z Logger) Debug(msg string, f featherquery.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f featherquery.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f featherquery.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f featherquery.Fields) { z.L.Error(msg, zf(f)...) }

func (z Logger) With(f featherquery.Fields) featherquery.Logger {
	return Logger{L: z.L.With(zf(f)...)}
}

func zf(f featherquery.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
