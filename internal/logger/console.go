// Package logger provides logging implementations for tensorscan.
//
// The logger package offers leveled, timestamped logging of scan progress.
// Implementations are thread-safe and support various output destinations
// (console, file).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// EnvLogLevel is the environment variable consulted when neither the
// command line nor the config file sets a log level.
const EnvLogLevel = "TENSORSCAN_LOG"

// ResolveLevel picks the effective log level. Precedence: explicit flag,
// config file, the TENSORSCAN_LOG environment variable, then "info".
// Invalid levels resolve to "info".
func ResolveLevel(flagLevel, configLevel string) string {
	for _, level := range []string{flagLevel, configLevel, os.Getenv(EnvLogLevel)} {
		if strings.TrimSpace(level) != "" {
			return normalizeLogLevel(level)
		}
	}
	return "info"
}

// ConsoleLogger logs scan progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps for tracking scan flow.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
// Color output is automatically enabled when the writer is a TTY.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		mutex:       sync.Mutex{},
		colorOutput: isTerminal(writer),
	}
}

// DisableColor turns off colorized output regardless of TTY detection.
func (cl *ConsoleLogger) DisableColor() {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.colorOutput = false
}

// isTerminal checks if the writer is a terminal that supports colors.
// Respects the NO_COLOR convention via fatih/color's built-in detection.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo // Default to info if unknown
	}
}

// Tracef logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) Tracef(format string, args ...interface{}) {
	cl.logWithLevel("TRACE", format, args...)
}

// Debugf logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.logWithLevel("DEBUG", format, args...)
}

// Infof logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.logWithLevel("INFO", format, args...)
}

// Warnf logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logWithLevel("WARN", format, args...)
}

// Errorf logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.logWithLevel("ERROR", format, args...)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, format string, args ...interface{}) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	message := fmt.Sprintf(format, args...)

	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogScanSummary logs the scan summary with per-file statistics at INFO level.
// Format: "[HH:MM:SS] === Scan Summary ===\n[HH:MM:SS] Processed: <n>\n[HH:MM:SS] Failed: <n>\n[HH:MM:SS] Skipped: <n>\n[HH:MM:SS] Duration: <d>\n"
func (cl *ConsoleLogger) LogScanSummary(processed, failed, skipped int, duration time.Duration) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	durationStr := formatDuration(duration)

	var output string
	if cl.colorOutput {
		header := color.New(color.Bold).Sprint("=== Scan Summary ===")
		output = fmt.Sprintf("[%s] %s\n", ts, header)

		processedText := color.New(color.FgGreen).Sprintf("Processed: %d", processed)
		output += fmt.Sprintf("[%s] %s\n", ts, processedText)

		if failed > 0 {
			failedText := color.New(color.FgRed).Sprintf("Failed: %d", failed)
			output += fmt.Sprintf("[%s] %s\n", ts, failedText)
		} else {
			output += fmt.Sprintf("[%s] Failed: %d\n", ts, failed)
		}

		if skipped > 0 {
			skippedText := color.New(color.FgYellow).Sprintf("Skipped: %d", skipped)
			output += fmt.Sprintf("[%s] %s\n", ts, skippedText)
		} else {
			output += fmt.Sprintf("[%s] Skipped: %d\n", ts, skipped)
		}

		output += fmt.Sprintf("[%s] Duration: %s\n", ts, durationStr)
	} else {
		output = fmt.Sprintf("[%s] === Scan Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Processed: %d\n", ts, processed)
		output += fmt.Sprintf("[%s] Failed: %d\n", ts, failed)
		output += fmt.Sprintf("[%s] Skipped: %d\n", ts, skipped)
		output += fmt.Sprintf("[%s] Duration: %s\n", ts, durationStr)
	}

	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger is a logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Tracef is a no-op implementation.
func (n *NoOpLogger) Tracef(format string, args ...interface{}) {
}

// Debugf is a no-op implementation.
func (n *NoOpLogger) Debugf(format string, args ...interface{}) {
}

// Infof is a no-op implementation.
func (n *NoOpLogger) Infof(format string, args ...interface{}) {
}

// Warnf is a no-op implementation.
func (n *NoOpLogger) Warnf(format string, args ...interface{}) {
}

// Errorf is a no-op implementation.
func (n *NoOpLogger) Errorf(format string, args ...interface{}) {
}

// LogScanSummary is a no-op implementation.
func (n *NoOpLogger) LogScanSummary(processed, failed, skipped int, duration time.Duration) {
}
