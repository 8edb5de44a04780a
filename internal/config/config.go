package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PushConfig holds VAPID keys for web push reminders. Both keys must be set
// for reminders to be enabled.
type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber"`
}

// BackupConfig holds S3 snapshot backup settings.
type BackupConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	Region     string `yaml:"region"`
	Bucket     string `yaml:"bucket"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Passphrase string `yaml:"passphrase"`
}

// Config is the top-level application configuration, loaded from a YAML file
// with environment variable overrides.
type Config struct {
	Listen   string       `yaml:"listen"`
	DBPath   string       `yaml:"db_path"`
	LogLevel string       `yaml:"log_level"`
	Push     PushConfig   `yaml:"push"`
	Backup   BackupConfig `yaml:"backup"`
}

// Default returns the configuration used when no config file exists yet.
func Default() Config {
	return Config{
		Listen:   ":8080",
		DBPath:   "bramble.db",
		LogLevel: "info",
	}
}

// Load reads the config file at path, creating it with defaults on first run.
// Environment variables (BRAMBLE_LISTEN, BRAMBLE_DB_PATH, BRAMBLE_LOG_LEVEL)
// override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(path, cfg); err != nil {
			return cfg, fmt.Errorf("create default config: %w", err)
		}
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("BRAMBLE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("BRAMBLE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BRAMBLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// Save writes the config as YAML with 0600 permissions (it may hold secrets).
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
