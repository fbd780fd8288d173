// Package logging configures the process-wide logrus logger.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

const timestampFormat = "2006-01-02 15:04:05"

// bracketFields are rendered as a [..][..] prefix by CompactFormatter.
var bracketFields = []string{"component", "device", "interface"}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`           // json, text, simple, or compact
	Output string `yaml:"output,omitempty" toml:"output"` // stdout (default), stderr, or a file path
}

// CompactFormatter prints one line per entry:
// [time][LEVEL][component][device][interface] message (key=value, ...)
type CompactFormatter struct {
	ShowTime bool
}

// Format renders a single log entry
func (f *CompactFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	if f.ShowTime {
		fmt.Fprintf(b, "[%s]", entry.Time.Format("15:04:05"))
	}
	fmt.Fprintf(b, "[%s]", strings.ToUpper(entry.Level.String()))

	for _, key := range bracketFields {
		if v, ok := entry.Data[key]; ok {
			fmt.Fprintf(b, "[%v]", v)
		}
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)

	var keys []string
	for k := range entry.Data {
		if !isBracketField(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		b.WriteString(" (")
		for i, key := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s=%v", key, entry.Data[key])
		}
		b.WriteByte(')')
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func isBracketField(key string) bool {
	for _, f := range bracketFields {
		if f == key {
			return true
		}
	}
	return false
}

func formatterFor(format string) (logrus.Formatter, bool) {
	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{TimestampFormat: timestampFormat}, true
	case "simple":
		return &CompactFormatter{ShowTime: false}, true
	case "compact":
		return &CompactFormatter{ShowTime: true}, true
	case "text", "":
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat}, true
	}
	return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat}, false
}

func outputFor(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return f, nil
}

// InitLogger initializes the global logger with the provided configuration.
// Invalid settings fall back to info, text and stdout with a warning.
func InitLogger(config LogConfig) {
	Logger = logrus.New()

	out, err := outputFor(config.Output)
	if err != nil {
		out = os.Stdout
	}
	Logger.SetOutput(out)
	if err != nil {
		Logger.WithError(err).Warn("Logging to stdout instead")
	}

	level, levelErr := logrus.ParseLevel(config.Level)
	if levelErr != nil {
		level = logrus.InfoLevel
		Logger.Warnf("Invalid log level '%s', defaulting to 'info'", config.Level)
	}
	Logger.SetLevel(level)

	formatter, ok := formatterFor(config.Format)
	Logger.SetFormatter(formatter)
	if !ok {
		Logger.Warnf("Invalid log format '%s', defaulting to 'text'", config.Format)
	}

	Logger.Debugf("Logger initialized with level: %s, format: %s", level.String(), config.Format)
}

// GetLogger returns the global logger, creating a default one on first use.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitLogger(LogConfig{
			Level:  "info",
			Format: "text",
		})
	}
	return Logger
}

// Helper functions for common logging patterns
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

func WithInterface(iface string) *logrus.Entry {
	return GetLogger().WithField("interface", iface)
}

func WithDevice(device string) *logrus.Entry {
	return GetLogger().WithField("device", device)
}

// WithManager returns an entry tagged with everything a network manager logs under.
func WithManager(component, device, iface string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"component": component,
		"device":    device,
		"interface": iface,
	})
}

func WithError(err error) *logrus.Entry {
	return GetLogger().WithError(err)
}
