package logger

import (
	"go.uber.org/zap"
)

// New builds a JSON production logger for env "production" and a console development logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Must is New that panics, for process entrypoints.
func Must(env string) *zap.Logger {
	l, err := New(env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return l
}

// Sync flushes buffered entries. Errors from syncing stderr on some platforms are ignored.
func Sync(l *zap.Logger) {
	_ = l.Sync()
}

// Component returns a child logger tagged with the component name.
func Component(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.With(zap.String("component", name))
}
