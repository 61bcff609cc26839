package env

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the path to the user config directory for pixelfirm (~/.config/pixelfirm)
func GetConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pixelfirm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pixelfirm"), nil
}

// GetUserDataDir returns the path to the user data directory for pixelfirm (~/.local/share/pixelfirm)
func GetUserDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "pixelfirm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "pixelfirm"), nil
}
