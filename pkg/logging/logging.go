package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger so packages do not depend on zerolog directly.
type Logger struct {
	core   zerolog.Logger
	closer io.Closer
	mu     sync.Mutex
}

// Options describe how to construct a logger instance.
type Options struct {
	File  string
	Level string
	// Format is "json" (default) or "console".
	Format string
	// Writer overrides the default stderr destination.
	Writer io.Writer
}

// New builds a zerolog-backed logger writing to stderr and, optionally, to a file.
// Stdout is left alone: it carries the program name for callers that capture it.
func New(opts Options) (*Logger, error) {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	writer := out
	var closer io.Closer
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		writer = zerolog.MultiLevelWriter(out, f)
		closer = f
	}

	core := zerolog.New(writer).Level(parseLevel(opts.Level)).With().Timestamp().Logger()
	return &Logger{
		core:   core,
		closer: closer,
	}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{core: zerolog.Nop()}
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.core.Info().Fields(args).Msg(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.core.Error().Fields(args).Msg(msg)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.core.Debug().Fields(args).Msg(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.core.Warn().Fields(args).Msg(msg)
}

// Sync closes any underlying file handle.
func (l *Logger) Sync() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		_ = l.closer.Close()
		l.closer = nil
	}
}

// With returns a child logger with structured attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{core: l.core.With().Fields(args).Logger()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
