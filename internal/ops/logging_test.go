package ops

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sandwichfarm/gopherd/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *config.Logging
	}{
		{name: "text format", config: &config.Logging{Level: "info", Format: "text"}},
		{name: "json format", config: &config.Logging{Level: "debug", Format: "json"}},
		{name: "warn level", config: &config.Logging{Level: "warn", Format: "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Fatal("expected logger to be created")
			}
			if logger.format != tt.config.Format {
				t.Errorf("expected format %s, got %s", tt.config.Format, logger.format)
			}
		})
	}
}

func TestLoggerWithComponent(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Logging{Level: "info", Format: "text"}

	logger := NewLoggerWithWriter(cfg, &buf)
	componentLogger := logger.WithComponent("supervisor")

	componentLogger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected log output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, "component") {
		t.Errorf("expected log output to contain 'component', got: %s", output)
	}
}

func TestIsDebugEnabled(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected bool
	}{
		{"debug level", "debug", true},
		{"info level", "info", false},
		{"warn level", "warn", false},
		{"error level", "error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&config.Logging{Level: tt.level, Format: "text"})
			if logger.IsDebugEnabled() != tt.expected {
				t.Errorf("expected IsDebugEnabled to be %v, got %v", tt.expected, logger.IsDebugEnabled())
			}
		})
	}
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Logging{Level: "debug", Format: "text"}

	logger := NewLoggerWithWriter(cfg, &buf)

	logger.LogProtocolRequest("/sub", "127.0.0.1:1234", 5*time.Millisecond, nil)
	logger.LogAccept(0, "127.0.0.1:1234")
	logger.LogReap(0)
	logger.LogTraversalAttempt("../etc/passwd", "", "127.0.0.1:1234")
	logger.LogStartup("0.0.0.0:70", "/srv/gopher")
	logger.LogShutdown("SIGINT")

	output := buf.String()
	if output == "" {
		t.Error("expected log output, got empty string")
	}
	if !strings.Contains(output, "selector sanitized") {
		t.Errorf("expected traversal log line, got: %s", output)
	}
}
