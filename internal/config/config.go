package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HistoryConfig represents scan history store configuration
type HistoryConfig struct {
	// Enabled enables recording scan outcomes to the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database (empty = under the tensorscan home)
	DBPath string `yaml:"db_path"`
}

// Config represents tensorscan configuration options
type Config struct {
	// Extension is the file suffix collected under directory roots, without the dot
	Extension string `yaml:"extension"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error).
	// Empty defers to the TENSORSCAN_LOG environment variable, then "info".
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty = under the tensorscan home)
	LogDir string `yaml:"log_dir"`

	// NoColor disables colored console output
	NoColor bool `yaml:"no_color"`

	// SidecarDir is the directory where per-file JSON reports are written (empty = disabled)
	SidecarDir string `yaml:"sidecar_dir"`

	// DryRun lists candidate files without parsing them
	DryRun bool `yaml:"dry_run"`

	// History contains scan history store configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Extension:  "safetensors",
		LogLevel:   "", // resolved at runtime so the env var stays consultable
		LogDir:     "", // resolved under the tensorscan home when empty
		NoColor:    false,
		SidecarDir: "",
		DryRun:     false,
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "", // resolved under the tensorscan home when empty
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var yamlCfg Config
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.Extension != "" {
		cfg.Extension = yamlCfg.Extension
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.SidecarDir != "" {
		cfg.SidecarDir = yamlCfg.SidecarDir
	}
	// NoColor and DryRun default to false, so absence and an explicit false
	// are indistinguishable after unmarshal. Only true can override.
	if yamlCfg.NoColor {
		cfg.NoColor = yamlCfg.NoColor
	}
	if yamlCfg.DryRun {
		cfg.DryRun = yamlCfg.DryRun
	}

	// Merge history config - need to check if the section was provided at all,
	// because history.enabled defaults to true and "enabled: false" in the
	// file must be able to override it
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if historySection, exists := rawMap["history"]; exists && historySection != nil {
			historyMap, _ := historySection.(map[string]interface{})

			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				// Explicitly set db_path, even if empty string
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(extension *string, logLevel *string, noColor *bool, sidecarDir *string, dryRun *bool, historyEnabled *bool) {
	if extension != nil {
		c.Extension = *extension
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if noColor != nil {
		c.NoColor = *noColor
	}
	if sidecarDir != nil {
		c.SidecarDir = *sidecarDir
	}
	if dryRun != nil {
		c.DryRun = *dryRun
	}
	if historyEnabled != nil {
		c.History.Enabled = *historyEnabled
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	// Validate log_level, empty means unset and resolves later
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if c.LogLevel != "" && !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	// Extension is a bare suffix, not a path or pattern
	if strings.ContainsAny(c.Extension, `/\*?[{`) {
		return fmt.Errorf("invalid extension %q, must be a plain suffix like %q", c.Extension, "safetensors")
	}

	return nil
}
