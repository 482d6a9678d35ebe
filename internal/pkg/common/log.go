package common

import (
	"fmt"
	"io"
	"os"
)

// LogWriter collects diagnostics for one driver invocation. The
// elaborator itself returns errors; the CLI and the watch loop funnel
// them through here so repeated runs share one sink.
type LogWriter struct {
	Out    io.Writer
	errors []error
}

func (l *LogWriter) writer() io.Writer {
	if l.Out == nil {
		return os.Stderr
	}
	return l.Out
}

func (l *LogWriter) Err(errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		l.errors = append(l.errors, err)
		_, _ = fmt.Fprintln(l.writer(), err.Error())
	}
}

func (l *LogWriter) Trace(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer(), format+"\n", args...)
}

func (l *LogWriter) HasErrors() bool {
	return len(l.errors) > 0
}

func (l *LogWriter) Errors() []error {
	return l.errors
}

func (l *LogWriter) Reset() {
	l.errors = nil
}
