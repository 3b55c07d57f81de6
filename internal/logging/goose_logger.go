package logging

import "github.com/pressly/goose/v3"

// GooseLogger routes migration output through the zenremote logger. Goose is
// chatty on every run, so its progress lines go to debug.
type GooseLogger struct {
}

var _ goose.Logger = (*GooseLogger)(nil)

func (g GooseLogger) Fatalf(format string, v ...interface{}) {
	Fatalf(format, v...)
}

func (g GooseLogger) Printf(format string, v ...interface{}) {
	Debugf(format, v...)
}
