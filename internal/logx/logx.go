package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Level is the console threshold; empty means warn.
	Level string
	// Dir receives a timestamped log file when non-empty.
	Dir string
	// Console defaults to os.Stderr.
	Console io.Writer
	// NoColor disables ANSI colors on the console.
	NoColor bool
}

// ParseLevel maps a textual level to zerolog, accepting "warning" and
// "off" as aliases.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.WarnLevel, true
	case "warning":
		return zerolog.WarnLevel, true
	case "off", "none":
		return zerolog.Disabled, true
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.WarnLevel, false
	}
	return level, true
}

// New creates a logger that writes human-readable lines to the console and,
// when Dir is set, every debug-or-higher event to a timestamped file inside
// Dir. The returned closer should be closed when logging is no longer needed.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, ok := ParseLevel(opts.Level)
	if !ok {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("unknown log level %q", opts.Level)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{levelFilter{
		floor: level,
		w: zerolog.ConsoleWriter{
			Out:          console,
			NoColor:      opts.NoColor,
			PartsExclude: []string{zerolog.TimestampFieldName},
		},
	}}
	threshold := level

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("ensure logs directory: %w", err)
		}
		filename := time.Now().Format("20060102-150405") + ".log"
		file, err := os.OpenFile(filepath.Join(opts.Dir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, levelFilter{floor: zerolog.DebugLevel, w: file})
		if zerolog.DebugLevel < threshold {
			threshold = zerolog.DebugLevel
		}
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(threshold).
		With().Timestamp().Logger()
	return logger, closer, nil
}

type levelFilter struct {
	floor zerolog.Level
	w     io.Writer
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if f.floor == zerolog.Disabled || level < f.floor {
		return len(p), nil
	}
	return f.w.Write(p)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
