// Package config loads ontask settings. Values come from built-in defaults,
// then <data dir>/config.yaml, then ONTASK_* environment variables. Command
// line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dori/ontask/internal/db"
)

// File names inside the data directory
const (
	ConfigFile  = "config.yaml"
	DBFile      = "ontask.db"
	LockFile    = "ontask.lock"
	LogFile     = "ontask.log"
	SessionFile = "session"
)

// Config holds application settings
type Config struct {
	DataDir       string        `yaml:"-"`
	Theme         string        `yaml:"theme"`
	LogLevel      string        `yaml:"log_level"`
	SessionMaxAge time.Duration `yaml:"session_max_age"`
	MetricsFile   string        `yaml:"metrics_file"` // empty disables the textfile export
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		DataDir:       db.DefaultDataDir(),
		Theme:         "nord",
		LogLevel:      "info",
		SessionMaxAge: 30 * 24 * time.Hour,
	}
}

// Load resolves the data directory (dataDir, else ONTASK_DATA_DIR, else the
// default) and layers its config file and the environment over the defaults.
// A missing config file is not an error.
func Load(dataDir string) (*Config, error) {
	cfg := Default()
	cfg.DataDir = getEnvString("ONTASK_DATA_DIR", cfg.DataDir)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := cfg.loadFile(cfg.ConfigPath()); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Theme = getEnvString("ONTASK_THEME", c.Theme)
	c.LogLevel = getEnvString("ONTASK_LOG_LEVEL", c.LogLevel)
	c.SessionMaxAge = getEnvDuration("ONTASK_SESSION_MAX_AGE", c.SessionMaxAge)
	c.MetricsFile = getEnvString("ONTASK_METRICS_FILE", c.MetricsFile)
}

// ConfigPath is the optional YAML file in the data directory
func (c *Config) ConfigPath() string { return filepath.Join(c.DataDir, ConfigFile) }

// DBPath is the sqlite database file
func (c *Config) DBPath() string { return filepath.Join(c.DataDir, DBFile) }

// LockPath is the single-instance lock file
func (c *Config) LockPath() string { return filepath.Join(c.DataDir, LockFile) }

// LogPath is where the JSON log is appended
func (c *Config) LogPath() string { return filepath.Join(c.DataDir, LogFile) }

// SessionPath holds the raw token of the signed-in session
func (c *Config) SessionPath() string { return filepath.Join(c.DataDir, SessionFile) }

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// getEnvDuration accepts Go durations ("72h") or a plain number of seconds
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
