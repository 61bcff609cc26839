package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"pixelfirm/pkg/env"
)

// DefaultRemoteManifestURL is where the manifest updater publishes the
// device-to-image mapping.
const DefaultRemoteManifestURL = "https://raw.githubusercontent.com/pixelfirm/pixelfirm/main/manifest.json"

type Config struct {
	RemoteManifestURL string `toml:"remote_manifest_url"`
	LocalManifestPath string `toml:"local_manifest_path"`
	OutputDir         string `toml:"output_dir"`
	UserAgent         string `toml:"user_agent"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	ChunkSizeKiB      int    `toml:"chunk_size_kib"`
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) ChunkSize() int {
	return c.ChunkSizeKiB * 1024
}

// Default returns the built-in configuration. The local manifest lives in the
// user data dir so the updater and the downloader agree on its location.
func Default() *Config {
	cfg := &Config{
		RemoteManifestURL: DefaultRemoteManifestURL,
		UserAgent:         "pixelfirm/1.0",
		TimeoutSeconds:    30,
		ChunkSizeKiB:      128,
		OutputDir:         ".",
	}
	if dataDir, err := env.GetUserDataDir(); err == nil {
		cfg.LocalManifestPath = filepath.Join(dataDir, "manifest.json")
	}
	return cfg
}

// Load reads <config-dir>/config.toml on top of the defaults. A missing file
// is not an error.
func Load() (*Config, error) {
	configDir, err := env.GetConfigDir()
	if err != nil {
		return Default(), err
	}
	return LoadFile(filepath.Join(configDir, "config.toml"))
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.ChunkSizeKiB <= 0 {
		cfg.ChunkSizeKiB = 128
	}
	return cfg, nil
}
