package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure New.
type Options struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string
	// File, when set, receives the logs through a size-rotated writer.
	File string
	// Output overrides the destination; used by tests. Ignored when File is set.
	Output io.Writer
}

// ParseLevel maps a level name to its slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// SlogLogger writes JSON records through slog. Fields attached to a context
// with WithFields are added to every record logged with that context.
type SlogLogger struct {
	l   *slog.Logger
	out io.Closer
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l, out: io.NopCloser(nil)}
}

// New builds the application logger. Every record carries module=orgvote.
// Close flushes and closes the log file, if any.
func New(opts Options) (*SlogLogger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var (
		w   io.Writer = os.Stdout
		out io.Closer = io.NopCloser(nil)
	)
	switch {
	case opts.File != "":
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		w, out = lj, lj
	case opts.Output != nil:
		w = opts.Output
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{l: slog.New(h).With("module", "orgvote"), out: out}, nil
}

type fieldsKey struct{}

// WithFields returns a context whose log records include args, for example
// the CLI command or the ballot an operation works on.
func WithFields(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]any)
	return context.WithValue(ctx, fieldsKey{}, append(slices.Clip(prev), args...))
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if !s.l.Enabled(ctx, level) {
		return
	}
	if fields, _ := ctx.Value(fieldsKey{}).([]any); len(fields) > 0 {
		args = append(slices.Clip(fields), args...)
	}
	s.l.Log(ctx, level, msg, args...)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...), out: s.out}
}

// Close releases the log file. Children made by With share it.
func (s *SlogLogger) Close() error {
	return s.out.Close()
}
