package logger

import (
	"bytes"
	"strings"
	"testing"
)

// TestNormalizeLogLevel verifies normalization of user-supplied levels.
func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"TRACE", "trace"},
		{"  Debug  ", "debug"},
		{"", "info"},
		{"verbose", "info"},
		{"warning", "info"},
	}

	for _, tt := range tests {
		if got := normalizeLogLevel(tt.input); got != tt.want {
			t.Errorf("normalizeLogLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// TestLogLevelToInt verifies the numeric ordering of levels.
func TestLogLevelToInt(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"trace", levelTrace},
		{"debug", levelDebug},
		{"info", levelInfo},
		{"warn", levelWarn},
		{"error", levelError},
		{"unknown", levelInfo},
	}

	for _, tt := range tests {
		if got := logLevelToInt(tt.level); got != tt.want {
			t.Errorf("logLevelToInt(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

// TestLogLevelFiltering verifies that each configured level suppresses lower
// levels and passes its own level and above.
func TestLogLevelFiltering(t *testing.T) {
	emitAll := func(l *ConsoleLogger) {
		l.Tracef("trace message")
		l.Debugf("debug message")
		l.Infof("info message")
		l.Warnf("warn message")
		l.Errorf("error message")
	}

	tests := []struct {
		configured string
		wantTags   []string
		skipTags   []string
	}{
		{
			configured: "trace",
			wantTags:   []string{"[TRACE]", "[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"},
			skipTags:   []string{},
		},
		{
			configured: "debug",
			wantTags:   []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"},
			skipTags:   []string{"[TRACE]"},
		},
		{
			configured: "info",
			wantTags:   []string{"[INFO]", "[WARN]", "[ERROR]"},
			skipTags:   []string{"[TRACE]", "[DEBUG]"},
		},
		{
			configured: "warn",
			wantTags:   []string{"[WARN]", "[ERROR]"},
			skipTags:   []string{"[TRACE]", "[DEBUG]", "[INFO]"},
		},
		{
			configured: "error",
			wantTags:   []string{"[ERROR]"},
			skipTags:   []string{"[TRACE]", "[DEBUG]", "[INFO]", "[WARN]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.configured, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.configured)

			emitAll(logger)

			output := buf.String()
			for _, tag := range tt.wantTags {
				if !strings.Contains(output, tag) {
					t.Errorf("level %q: expected %s to be logged, output: %q", tt.configured, tag, output)
				}
			}
			for _, tag := range tt.skipTags {
				if strings.Contains(output, tag) {
					t.Errorf("level %q: expected %s to be suppressed, output: %q", tt.configured, tag, output)
				}
			}
		})
	}
}
