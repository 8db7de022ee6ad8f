package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// NewLogger creates a new hclog logger with standard settings.
// An empty level falls back to the PYRITE_LOG_LEVEL environment variable.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}
	if level == "" {
		level = LogLevel()
	}

	// Machine-readable output for log collectors
	jsonFormat := os.Getenv("PYRITE_JSON_LOG") == "1"

	if !jsonFormat {
		output = NewPrefixWriter("⛏️ ", output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// LogLevel returns the configured log level from environment
func LogLevel() string {
	level := os.Getenv("PYRITE_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return level
}
