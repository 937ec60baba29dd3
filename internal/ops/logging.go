// Package ops holds gopherd's ambient operational concerns: structured
// logging and runtime diagnostics. Neither touches the Gopher wire
// protocol; both exist purely for the operator watching stdout/stderr.
package ops

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sandwichfarm/gopherd/internal/config"
)

// Logger is a structured logger wrapper around log/slog.
type Logger struct {
	*slog.Logger
	level  slog.Level
	format string
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured logger writing to stdout per cfg.
func NewLogger(cfg *config.Logging) *Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter creates a structured logger writing to w.
func NewLoggerWithWriter(cfg *config.Logging, w io.Writer) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		format: cfg.Format,
	}
}

// WithComponent returns a logger that tags every message with a component field.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		level:  l.level,
		format: l.format,
	}
}

// IsDebugEnabled reports whether debug-level messages are emitted.
func (l *Logger) IsDebugEnabled() bool {
	return l.level <= slog.LevelDebug
}

// LogProtocolRequest logs one completed Gopher transaction.
func (l *Logger) LogProtocolRequest(selector string, remote string, duration time.Duration, err error) {
	if err != nil {
		l.Error("gopher request failed",
			"selector", selector,
			"remote", remote,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return
	}
	l.Info("gopher request",
		"selector", selector,
		"remote", remote,
		"duration_ms", duration.Milliseconds())
}

// LogAccept logs a newly accepted connection.
func (l *Logger) LogAccept(slot int, remote string) {
	l.Debug("accepted connection", "slot", slot, "remote", remote)
}

// LogReap logs a slot being reclaimed after its handler finished.
func (l *Logger) LogReap(slot int) {
	l.Debug("reaped slot", "slot", slot)
}

// LogTraversalAttempt logs a selector that was truncated by sanitization.
func (l *Logger) LogTraversalAttempt(raw, sanitized string, remote string) {
	l.Warn("selector sanitized",
		"raw", raw,
		"sanitized", sanitized,
		"remote", remote)
}

// LogStartup logs process startup.
func (l *Logger) LogStartup(addr string, docroot string) {
	l.Info("gopherd starting", "addr", addr, "docroot", docroot)
}

// LogShutdown logs process shutdown.
func (l *Logger) LogShutdown(reason string) {
	l.Info("gopherd shutting down", "reason", reason)
}

// Default logger configuration, usable before a config file is loaded.
var defaultLogger = NewLogger(&config.Logging{Level: "info", Format: "text"})

// Default returns the package-wide default logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the package-wide default logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}
