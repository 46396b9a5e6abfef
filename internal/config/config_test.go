package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Extension != "safetensors" {
		t.Errorf("Extension = %q, want %q", cfg.Extension, "safetensors")
	}
	if cfg.LogLevel != "" {
		t.Errorf("LogLevel = %q, want empty (resolved at runtime)", cfg.LogLevel)
	}
	if cfg.LogDir != "" {
		t.Errorf("LogDir = %q, want empty (home default)", cfg.LogDir)
	}
	if cfg.NoColor != false {
		t.Errorf("NoColor = %v, want false", cfg.NoColor)
	}
	if cfg.SidecarDir != "" {
		t.Errorf("SidecarDir = %q, want empty (disabled)", cfg.SidecarDir)
	}
	if cfg.DryRun != false {
		t.Errorf("DryRun = %v, want false", cfg.DryRun)
	}
	if cfg.History.Enabled != true {
		t.Errorf("History.Enabled = %v, want true", cfg.History.Enabled)
	}
	if cfg.History.DBPath != "" {
		t.Errorf("History.DBPath = %q, want empty (home default)", cfg.History.DBPath)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `extension: gguf
log_level: debug
log_dir: /tmp/logs
no_color: true
sidecar_dir: /tmp/reports
dry_run: true
history:
  enabled: false
  db_path: /tmp/runs.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// Verify values
	if cfg.Extension != "gguf" {
		t.Errorf("Extension = %q, want %q", cfg.Extension, "gguf")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.LogDir != "/tmp/logs" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/tmp/logs")
	}
	if cfg.NoColor != true {
		t.Errorf("NoColor = %v, want true", cfg.NoColor)
	}
	if cfg.SidecarDir != "/tmp/reports" {
		t.Errorf("SidecarDir = %q, want %q", cfg.SidecarDir, "/tmp/reports")
	}
	if cfg.DryRun != true {
		t.Errorf("DryRun = %v, want true", cfg.DryRun)
	}
	if cfg.History.Enabled != false {
		t.Errorf("History.Enabled = %v, want false", cfg.History.Enabled)
	}
	if cfg.History.DBPath != "/tmp/runs.db" {
		t.Errorf("History.DBPath = %q, want %q", cfg.History.DBPath, "/tmp/runs.db")
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}

	// Should return default config
	if cfg.Extension != "safetensors" {
		t.Errorf("Extension = %q, want %q (default)", cfg.Extension, "safetensors")
	}
	if cfg.LogLevel != "" {
		t.Errorf("LogLevel = %q, want empty (default)", cfg.LogLevel)
	}
}

// TestLoadConfigInvalidYAML tests error handling for malformed YAML
func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write invalid YAML
	invalidYAML := `
extension: gguf
sidecar_dir: [this is not valid
log_level: debug
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("LoadConfig() expected error for invalid YAML, got nil")
	}
}

// TestLoadConfigPartialValues tests that partial config merges with defaults
func TestLoadConfigPartialValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Only set some values
	configContent := `log_level: warn
sidecar_dir: /srv/reports
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// Check set values
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.SidecarDir != "/srv/reports" {
		t.Errorf("SidecarDir = %q, want %q", cfg.SidecarDir, "/srv/reports")
	}

	// Check default values for unset fields
	if cfg.Extension != "safetensors" {
		t.Errorf("Extension = %q, want %q (default)", cfg.Extension, "safetensors")
	}
	if cfg.History.Enabled != true {
		t.Errorf("History.Enabled = %v, want true (default)", cfg.History.Enabled)
	}
}

// TestLoadConfigHistoryDisabled tests that history.enabled false overrides the
// enabled-by-default store
func TestLoadConfigHistoryDisabled(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `history:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.History.Enabled != false {
		t.Errorf("History.Enabled = %v, want false", cfg.History.Enabled)
	}
	// db_path was not mentioned, default preserved
	if cfg.History.DBPath != "" {
		t.Errorf("History.DBPath = %q, want empty (default)", cfg.History.DBPath)
	}
}

// TestLoadConfigHistoryPartial tests merging when only db_path is given
func TestLoadConfigHistoryPartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `history:
  db_path: /data/scan-history.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.History.DBPath != "/data/scan-history.db" {
		t.Errorf("History.DBPath = %q, want %q", cfg.History.DBPath, "/data/scan-history.db")
	}
	// enabled was not mentioned, default true preserved
	if cfg.History.Enabled != true {
		t.Errorf("History.Enabled = %v, want true (default)", cfg.History.Enabled)
	}
}

// TestMergeWithFlags tests CLI flag precedence over config values
func TestMergeWithFlags(t *testing.T) {
	cfg := &Config{
		Extension:  "safetensors",
		LogLevel:   "info",
		NoColor:    false,
		SidecarDir: "",
		DryRun:     false,
		History:    HistoryConfig{Enabled: true},
	}

	// Override all values with flags
	extension := "gguf"
	logLevel := "debug"
	noColor := true
	sidecarDir := "/custom/reports"
	dryRun := true
	historyEnabled := false

	cfg.MergeWithFlags(&extension, &logLevel, &noColor, &sidecarDir, &dryRun, &historyEnabled)

	// Verify flags take precedence
	if cfg.Extension != "gguf" {
		t.Errorf("Extension = %q, want %q", cfg.Extension, "gguf")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.NoColor != true {
		t.Errorf("NoColor = %v, want true", cfg.NoColor)
	}
	if cfg.SidecarDir != "/custom/reports" {
		t.Errorf("SidecarDir = %q, want %q", cfg.SidecarDir, "/custom/reports")
	}
	if cfg.DryRun != true {
		t.Errorf("DryRun = %v, want true", cfg.DryRun)
	}
	if cfg.History.Enabled != false {
		t.Errorf("History.Enabled = %v, want false", cfg.History.Enabled)
	}
}

// TestMergeWithFlagsPartial tests that only non-nil flags override config
func TestMergeWithFlagsPartial(t *testing.T) {
	cfg := &Config{
		Extension:  "safetensors",
		LogLevel:   "info",
		SidecarDir: "/srv/reports",
		History:    HistoryConfig{Enabled: true},
	}

	// Only override some values (others are nil)
	extension := "bin"
	logLevel := "error"

	cfg.MergeWithFlags(&extension, &logLevel, nil, nil, nil, nil)

	// Verify partial override
	if cfg.Extension != "bin" {
		t.Errorf("Extension = %q, want %q", cfg.Extension, "bin")
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "error")
	}

	// Verify original values preserved
	if cfg.SidecarDir != "/srv/reports" {
		t.Errorf("SidecarDir = %q, want %q (original)", cfg.SidecarDir, "/srv/reports")
	}
	if cfg.History.Enabled != true {
		t.Errorf("History.Enabled = %v, want true (original)", cfg.History.Enabled)
	}
}

// TestMergeWithFlagsNil tests that nil flags don't override config
func TestMergeWithFlagsNil(t *testing.T) {
	cfg := &Config{
		Extension:  "safetensors",
		LogLevel:   "warn",
		NoColor:    true,
		SidecarDir: "/srv/reports",
		DryRun:     true,
		History:    HistoryConfig{Enabled: false},
	}

	// Pass all nil flags
	cfg.MergeWithFlags(nil, nil, nil, nil, nil, nil)

	// Verify all original values preserved
	if cfg.Extension != "safetensors" {
		t.Errorf("Extension = %q, want %q (original)", cfg.Extension, "safetensors")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q (original)", cfg.LogLevel, "warn")
	}
	if cfg.NoColor != true {
		t.Errorf("NoColor = %v, want true (original)", cfg.NoColor)
	}
	if cfg.SidecarDir != "/srv/reports" {
		t.Errorf("SidecarDir = %q, want %q (original)", cfg.SidecarDir, "/srv/reports")
	}
	if cfg.DryRun != true {
		t.Errorf("DryRun = %v, want true (original)", cfg.DryRun)
	}
	if cfg.History.Enabled != false {
		t.Errorf("History.Enabled = %v, want false (original)", cfg.History.Enabled)
	}
}

// TestMergeWithFlagsZeroValues tests that zero-value flags are treated as set
func TestMergeWithFlagsZeroValues(t *testing.T) {
	cfg := &Config{
		Extension:  "gguf",
		LogLevel:   "debug",
		NoColor:    true,
		SidecarDir: "/srv/reports",
		DryRun:     true,
		History:    HistoryConfig{Enabled: true},
	}

	// Set flags to zero values
	extension := ""
	logLevel := ""
	noColor := false
	sidecarDir := ""
	dryRun := false
	historyEnabled := false

	cfg.MergeWithFlags(&extension, &logLevel, &noColor, &sidecarDir, &dryRun, &historyEnabled)

	// Zero values should override config
	if cfg.Extension != "" {
		t.Errorf("Extension = %q, want empty string", cfg.Extension)
	}
	if cfg.LogLevel != "" {
		t.Errorf("LogLevel = %q, want empty string", cfg.LogLevel)
	}
	if cfg.NoColor != false {
		t.Errorf("NoColor = %v, want false", cfg.NoColor)
	}
	if cfg.SidecarDir != "" {
		t.Errorf("SidecarDir = %q, want empty string", cfg.SidecarDir)
	}
	if cfg.DryRun != false {
		t.Errorf("DryRun = %v, want false", cfg.DryRun)
	}
	if cfg.History.Enabled != false {
		t.Errorf("History.Enabled = %v, want false", cfg.History.Enabled)
	}
}

// TestConfigValidation tests validation of config values
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		wantError bool
	}{
		{
			name: "valid config",
			config: `extension: safetensors
log_level: info
`,
			wantError: false,
		},
		{
			name: "invalid log_level",
			config: `log_level: invalid
`,
			wantError: true,
		},
		{
			name: "extension with path separator",
			config: `extension: models/safetensors
`,
			wantError: true,
		},
		{
			name: "extension with glob metacharacter",
			config: `extension: "*.safetensors"
`,
			wantError: true,
		},
		{
			name: "extension with dot prefix (allowed)",
			config: `extension: .safetensors
`,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")

			if err := os.WriteFile(configPath, []byte(tt.config), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg, err := LoadConfig(configPath)
			if err != nil {
				if !tt.wantError {
					t.Fatalf("LoadConfig() unexpected error = %v", err)
				}
				return
			}

			// Validate the loaded config
			err = cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

// TestEmptyConfigFile tests loading an empty config file
func TestEmptyConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Create empty file
	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// Should return defaults for empty file
	if cfg.Extension != "safetensors" {
		t.Errorf("Extension = %q, want %q (default)", cfg.Extension, "safetensors")
	}
	if cfg.LogLevel != "" {
		t.Errorf("LogLevel = %q, want empty (default)", cfg.LogLevel)
	}
}

// TestConfigWithComments tests loading config with YAML comments
func TestConfigWithComments(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `# This is a comment
extension: gguf  # inline comment
# Another comment
log_level: debug  # set to debug for troubleshooting
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Extension != "gguf" {
		t.Errorf("Extension = %q, want %q", cfg.Extension, "gguf")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

// TestLoadConfigPermissionDenied tests handling of permission errors
func TestLoadConfigPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced the same way on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Create config file
	if err := os.WriteFile(configPath, []byte("extension: gguf"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Make file unreadable
	if err := os.Chmod(configPath, 0000); err != nil {
		t.Fatalf("failed to chmod config: %v", err)
	}
	defer os.Chmod(configPath, 0644) // Restore permissions for cleanup

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("LoadConfig() expected error for unreadable file, got nil")
	}
}

// TestValidLogLevels tests that valid log levels are accepted
func TestValidLogLevels(t *testing.T) {
	validLevels := []string{"trace", "debug", "info", "warn", "error"}

	for _, level := range validLevels {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level

			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() error = %v for valid level %q", err, level)
			}
		})
	}
}

// TestEmptyLogLevelValid tests that an unset log level passes validation,
// since resolution happens later against the environment
func TestEmptyLogLevelValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v for empty log level", err)
	}
}

// TestInvalidLogLevels tests that invalid log levels are rejected
func TestInvalidLogLevels(t *testing.T) {
	invalidLevels := []string{"invalid", "TRACE", "INFO", "warning", "fatal"}

	for _, level := range invalidLevels {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level

			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() expected error for invalid level %q", level)
			}
		})
	}
}
