// Package logrus adapts a *logrus.Entry to featherquery.Logger.
package logrus

import (
	featherquery "github.com/Mehemmed77/FeatherQuery"
	"github.com/sirupsen/logrus"
)

var _ featherquery.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New wraps l with a component field.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "featherquery")}
}

func (l Logger) Debug(msg string, f featherquery.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f featherquery.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f featherquery.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f featherquery.Fields) { l.entry(f).Error(msg) }

func (l Logger) With(f featherquery.Fields) featherquery.Logger {
	return Logger{E: l.entry(f)}
}

func (l Logger) entry(f featherquery.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	if err, ok := f["err"].(error); ok {
		rest := make(logrus.Fields, len(f)-1)
		for k, v := range f {
			if k != "err" {
				rest[k] = v
			}
		}
		return l.E.WithError(err).WithFields(rest)
	}
	return l.E.WithFields(logrus.Fields(f))
}
