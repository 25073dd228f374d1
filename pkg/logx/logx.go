// Package logx configures the process-wide structured logger and hands out
// component loggers.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the handler format and minimum level.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New builds a logger from opts without installing it as the default.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatText:
		handler = slog.NewTextHandler(out, handlerOpts)
	case FormatJSON:
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		return nil, fmt.Errorf("logx: unknown format %q; allowed: text, json", opts.Format)
	}
	return slog.New(handler), nil
}

// Init builds a logger and installs it as slog's default.
func Init(opts Options) (*slog.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// ParseLevel maps debug/info/warn/error onto slog levels. Empty means info.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logx: unknown level %q", raw)
	}
}

// Component returns logger (or the default one when nil) tagged with component=name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", name))
}

type ridKey struct{}

// WithRID stores a request id on ctx.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ridKey{}, rid)
}

// NewRID returns a fresh correlation id for one inbound update.
func NewRID() string {
	return uuid.NewString()
}

// RIDFrom returns the request id stored on ctx, or "".
func RIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(ridKey{}).(string)
	return rid
}
