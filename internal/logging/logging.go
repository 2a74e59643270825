// Package logging configures the structured logger shared by the mtslab
// binaries.
package logging

import (
	"io"
	stdlog "log"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Log source tags used in structured logger contexts.
const (
	SourceApp        = "app"
	SourceCLI        = "cli"
	SourceAPI        = "api"
	SourceAPIRequest = "api_request"
	SourceStore      = "store"
)

var (
	initOnce   sync.Once
	baseLogger *log.Logger
	output     io.Writer = os.Stderr
)

// SetOutput redirects the base logger. It only has an effect before the
// first call to Init or Logger.
func SetOutput(w io.Writer) {
	output = w
}

// Init configures the base logger and stdlib log output.
func Init() {
	initOnce.Do(func() {
		baseLogger = log.NewWithOptions(output, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339Nano,
			Level:           levelFromEnv(),
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})

		stdLogger := baseLogger.With("source", SourceApp).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})

		stdlog.SetFlags(0)
		stdlog.SetOutput(stdLogger.Writer())
	})
}

// Logger returns a logfmt logger tagged with the provided source.
func Logger(source string) *log.Logger {
	Init()
	return baseLogger.With("source", source)
}

// StdLogger returns a stdlib logger that writes logfmt output with a source.
func StdLogger(source string) *stdlog.Logger {
	Init()
	return baseLogger.With("source", source).StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
}

// MTSLAB_LOG_LEVEL accepts debug, info, warn, error.
func levelFromEnv() log.Level {
	if v := os.Getenv("MTSLAB_LOG_LEVEL"); v != "" {
		if lvl, err := log.ParseLevel(v); err == nil {
			return lvl
		}
	}
	return log.InfoLevel
}
