// Package logger provides structured logging for quill.
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

func init() {
	defaultLogger = newLogger(Options{})
}

// Logger wraps a zerolog.Logger with key/value style methods.
type Logger struct {
	zl zerolog.Logger
}

// Options configures the logger.
type Options struct {
	Debug  bool            // Enable debug level logging
	Quiet  bool            // Only show errors
	JSON   bool            // Output as JSON
	Output io.Writer       // Output destination (default: stderr)
	Logger *zerolog.Logger // Custom logger (overrides all other options)
}

// Init initializes the logger with the specified options.
func Init(opts Options) {
	l := newLogger(opts)

	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

func newLogger(opts Options) *Logger {
	if opts.Logger != nil {
		return &Logger{zl: *opts.Logger}
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	if opts.Quiet {
		level = zerolog.ErrorLevel
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	if !opts.JSON {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    output != os.Stderr,
		}
	}

	return &Logger{zl: zerolog.New(output).Level(level).With().Timestamp().Logger()}
}

// SetLogger sets a custom zerolog.Logger to be used by quill.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = &Logger{zl: l}
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Info logs an info message.
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs a warning message.
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs an error message.
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a logger with the given key/value pairs attached.
func With(args ...any) *Logger {
	return current().With(args...)
}

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	write(withCtx(current().zl.Debug(), ctx), msg, args)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	write(withCtx(current().zl.Info(), ctx), msg, args)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	write(withCtx(current().zl.Warn(), ctx), msg, args)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	write(withCtx(current().zl.Error(), ctx), msg, args)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) { write(l.zl.Debug(), msg, args) }

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) { write(l.zl.Info(), msg, args) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) { write(l.zl.Warn(), msg, args) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) { write(l.zl.Error(), msg, args) }

// With returns a child logger with the given key/value pairs attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{zl: l.zl.With().Fields(args).Logger()}
}

func withCtx(e *zerolog.Event, ctx context.Context) *zerolog.Event {
	if e == nil || ctx == nil {
		return e
	}
	return e.Ctx(ctx)
}

// write attaches key/value pairs to e and sends it. Disabled levels
// return a nil event, on which every method is a no-op.
func write(e *zerolog.Event, msg string, args []any) {
	if len(args) > 0 {
		e = e.Fields(args)
	}
	e.Msg(msg)
}
