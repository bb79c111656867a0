// Package config loads runtime settings: built-in defaults, then an optional
// TOML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	configTOMLFileName = "config.toml"
	dataDirName        = ".opstree"
)

// Config holds all process-level settings.
type Config struct {
	DBPath       string `toml:"db_path"`
	HTTPAddr     string `toml:"http_addr"`
	LogLevel     string `toml:"log_level"`
	AuditSQL     bool   `toml:"audit_sql"`
	DefaultOwner string `toml:"default_owner"`
}

// DefaultConfig returns the settings used when nothing is configured.
// The database lives under ~/.opstree unless home cannot be resolved.
func DefaultConfig() Config {
	dir := dataDirName
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, dataDirName)
	}
	return Config{
		DBPath:   filepath.Join(dir, "opstree.db"),
		HTTPAddr: "127.0.0.1:4680",
		LogLevel: "info",
		AuditSQL: false,
	}
}

// DefaultPath returns the config file location: $OPSTREE_CONFIG, or
// ~/.opstree/config.toml.
func DefaultPath() string {
	if v := os.Getenv("OPSTREE_CONFIG"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(dataDirName, configTOMLFileName)
	}
	return filepath.Join(home, dataDirName, configTOMLFileName)
}

// LoadFile layers the TOML file at path (if it exists) and the environment
// over the defaults. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return normalize(cfg)
}

// Save writes cfg to path atomically.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	b, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Rename(tmp, path)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPSTREE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("OPSTREE_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("OPSTREE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OPSTREE_AUDIT_SQL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AuditSQL = b
		}
	}
	if v := os.Getenv("OPSTREE_OWNER"); v != "" {
		cfg.DefaultOwner = v
	}
}

func normalize(cfg Config) (Config, error) {
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultConfig().DBPath
	}
	cfg.HTTPAddr = strings.TrimSpace(cfg.HTTPAddr)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	cfg.DefaultOwner = strings.TrimSpace(cfg.DefaultOwner)
	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
