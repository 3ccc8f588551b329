// ABOUTME: Process-wide logrus logger and HTTP access-log middleware
// ABOUTME: Level and formatter come from config; tests run with logging silenced
package logging

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init is called.
var Log = newLogger(logrus.InfoLevel, "text")

var initOnce sync.Once

// Init configures Log once. Later calls are ignored.
func Init(level, format string) {
	initOnce.Do(func() {
		lvl := parseLevel(level)
		if flag.Lookup("test.v") != nil {
			lvl = logrus.FatalLevel
		}
		Log.SetLevel(lvl)
		Log.SetFormatter(buildFormatter(format))
	})
}

func newLogger(level logrus.Level, format string) *logrus.Logger {
	if flag.Lookup("test.v") != nil {
		level = logrus.FatalLevel
	}
	return &logrus.Logger{
		Out:       os.Stderr,
		Level:     level,
		Formatter: buildFormatter(format),
		Hooks:     make(logrus.LevelHooks),
		ExitFunc:  os.Exit,
	}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return logrus.TraceLevel
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func buildFormatter(format string) logrus.Formatter {
	switch strings.ToUpper(format) {
	case "JSON":
		return &logrus.JSONFormatter{}
	default:
		return &logrus.TextFormatter{FullTimestamp: true}
	}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// AccessLoggerMiddleware logs one line per request through Log.
func AccessLoggerMiddleware(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, logrusAccessLogAdapter)
}

func logrusAccessLogAdapter(_ io.Writer, params handlers.LogFormatterParams) {
	request := fmt.Sprintf("%s %s %s", params.Request.Method, params.URL.RequestURI(), params.Request.Proto)
	Log.WithFields(logrus.Fields{
		"remote_addr": params.Request.RemoteAddr,
		"request":     request,
		"request_id":  params.Request.Header.Get("X-Request-Id"),
		"status":      params.StatusCode,
		"size":        params.Size,
	}).Info("access")
}
