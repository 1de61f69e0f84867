// Package logging provides the structured logger threaded through every
// component of the control cycle. It mirrors the shape of the teacher's
// logging.Logger (go.viam.com/rdk/logging), itself a thin wrapper over
// go.uber.org/zap: a small interface taking structured key-value pairs,
// constructed once at process start and passed by value into constructors.
package logging

import (
	"go.uber.org/zap"
)

// Logger is the structured logging interface threaded through the core.
// Components log on state transitions and on degraded or failed
// operations, not as routine per-cycle output, to avoid flooding a 12ms
// loop.
type Logger interface {
	Debugw(msg string, kvs ...interface{})
	Infow(msg string, kvs ...interface{})
	Warnw(msg string, kvs ...interface{})
	Errorw(msg string, kvs ...interface{})
	Named(name string) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New returns a production Logger backed by zap.
func New() Logger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return &zapLogger{sugar: l.Sugar()}
}

// NewTest returns a Logger suitable for unit tests: synchronous, human
// readable, no sampling.
func NewTest() Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		l = zap.NewNop()
	}
	return &zapLogger{sugar: l.Sugar()}
}

func (l *zapLogger) Debugw(msg string, kvs ...interface{}) { l.sugar.Debugw(msg, kvs...) }
func (l *zapLogger) Infow(msg string, kvs ...interface{})  { l.sugar.Infow(msg, kvs...) }
func (l *zapLogger) Warnw(msg string, kvs ...interface{})  { l.sugar.Warnw(msg, kvs...) }
func (l *zapLogger) Errorw(msg string, kvs ...interface{}) { l.sugar.Errorw(msg, kvs...) }

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{sugar: l.sugar.Named(name)}
}
