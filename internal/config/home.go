package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvHome is the environment variable that overrides the tensorscan home directory
const EnvHome = "TENSORSCAN_HOME"

// GetTensorscanHome returns the tensorscan home directory
// Priority order:
//  1. TENSORSCAN_HOME environment variable (if set)
//  2. .tensorscan under the user home directory
//
// The directory is created if it doesn't exist
func GetTensorscanHome() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create tensorscan home directory: %w", err)
		}
		return home, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get user home directory: %w", err)
	}

	tensorscanHome := filepath.Join(userHome, ".tensorscan")
	if err := os.MkdirAll(tensorscanHome, 0755); err != nil {
		return "", fmt.Errorf("create tensorscan home directory: %w", err)
	}

	return tensorscanHome, nil
}

// GetHistoryDir returns the history directory path
// The directory is created if it doesn't exist
func GetHistoryDir() (string, error) {
	home, err := GetTensorscanHome()
	if err != nil {
		return "", err
	}

	historyDir := filepath.Join(home, "history")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return "", fmt.Errorf("create history directory: %w", err)
	}

	return historyDir, nil
}

// GetHistoryDBPath returns the absolute path to the scan history database
// Always returns: $TENSORSCAN_HOME/history/runs.db
func GetHistoryDBPath() (string, error) {
	historyDir, err := GetHistoryDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(historyDir, "runs.db"), nil
}

// GetLogDir returns the run log directory path
// The directory is created if it doesn't exist
func GetLogDir() (string, error) {
	home, err := GetTensorscanHome()
	if err != nil {
		return "", err
	}

	logDir := filepath.Join(home, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}

	return logDir, nil
}

// ResolveConfigPath returns the config file the scanner reads when no explicit
// --config path is given. A .tensorscan/config.yaml under the working
// directory wins over the one in the tensorscan home.
func ResolveConfigPath() (string, error) {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".tensorscan", "config.yaml")
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	home, err := GetTensorscanHome()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, "config.yaml"), nil
}
