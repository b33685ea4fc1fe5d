// Package logging builds the process-wide slog logger and its sinks.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to every given writer. With no writers it
// writes to stdout.
func New(level slog.Level, writers ...io.Writer) *slog.Logger {
	var out io.Writer = os.Stdout
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

// Setup builds the service logger. When logstashAddr is set, output is
// mirrored to Logstash; the returned closer releases that connection.
func Setup(level, logstashAddr string) (*slog.Logger, io.Closer) {
	writers := []io.Writer{os.Stdout}
	var closer io.Closer = nopCloser{}

	if addr := strings.TrimSpace(logstashAddr); addr != "" {
		w, err := NewLogstashWriter(addr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			writers = append(writers, w)
			closer = w
		}
	}

	logger := New(ParseLevel(level), writers...)
	slog.SetDefault(logger)
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
