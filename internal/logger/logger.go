// Package logger builds the kratos logger used by every component.
package logger

import (
	"io"
	"os"

	"github.com/go-kratos/kratos/v2/log"
)

// New returns a leveled logger writing to stderr, so stdout stays free for
// query results.
func New(level string) log.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, level string) log.Logger {
	l := log.With(log.NewStdLogger(w),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
	)
	return log.NewFilter(l, log.FilterLevel(log.ParseLevel(level)))
}
