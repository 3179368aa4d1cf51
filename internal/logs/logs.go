// Package logs builds the structured logger shared by the spelling
// components.
package logs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvLog set to a truthy value turns on debug logging.
	EnvLog = "PROSECHECK_LOG"
	// EnvLogFile names a file to append log lines to.
	EnvLogFile = "PROSECHECK_LOG_FILE"
)

// Options selects the level, line format and destination of a logger.
type Options struct {
	Level  slog.Level
	Format string // "json" or "text"
	File   string // Empty means the fallback writer.
}

// ParseLevel parses a level name such as "debug" or "warn". An empty
// string is info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// ValidFormat reports whether f names a known line format.
func ValidFormat(f string) bool {
	switch strings.ToLower(f) {
	case "", "json", "text":
		return true
	}
	return false
}

// ApplyEnv overrides opts from the environment: EnvLog set to anything but
// "", "0" or "false" lowers the level to debug and EnvLogFile picks the
// file.
func ApplyEnv(opts Options, getenv func(string) string) Options {
	if v := getenv(EnvLog); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		opts.Level = slog.LevelDebug
	}
	if f := getenv(EnvLogFile); f != "" {
		opts.File = f
	}
	return opts
}

// New returns a logger for opts writing to opts.File, or to fallback when
// no file is set. The returned func closes the file.
func New(opts Options, fallback io.Writer) (*slog.Logger, func() error, error) {
	w := fallback
	closeFn := func() error { return nil }
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}
	if w == nil {
		w = io.Discard
	}
	hopts := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(w, hopts)
	} else {
		h = slog.NewJSONHandler(w, hopts)
	}
	return slog.New(h), closeFn, nil
}

// FromEnv returns a JSON logger configured only from the environment.
// Without EnvLogFile it writes warnings and errors to stderr.
func FromEnv() (*slog.Logger, func() error, error) {
	opts := ApplyEnv(Options{Level: slog.LevelWarn}, os.Getenv)
	return New(opts, os.Stderr)
}
