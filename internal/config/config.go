// Package config loads and saves the shopsync.yaml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "shopsync.yaml"

// RemoteConfig holds the connection settings for one remote system.
type RemoteConfig struct {
	Endpoint  string  `yaml:"endpoint"`
	APIKey    string  `yaml:"api_key"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second
}

// Config is the full shopsync configuration.
type Config struct {
	DataDir string `yaml:"data_dir"` // cache, dead letters, work files, logs
	DBPath  string `yaml:"db_path"`

	Workers          int      `yaml:"workers"`
	SerialThreshold  int      `yaml:"serial_threshold"`  // batches at or below run in-process
	PollInterval     Duration `yaml:"poll_interval"`     // manager liveness poll
	ProgressInterval Duration `yaml:"progress_interval"` // worker snapshot cadence
	ItemDelay        Duration `yaml:"item_delay"`        // cooperative per-item throttle

	CacheTTL    Duration `yaml:"cache_ttl"`
	RetryWindow Duration `yaml:"retry_window"`

	Supplier   RemoteConfig `yaml:"supplier"`
	Storefront RemoteConfig `yaml:"storefront"`

	LogLevel string `yaml:"log_level"`
}

// Default returns a Config with all defaults applied, rooted at dir.
func Default(dir string) *Config {
	return &Config{
		DataDir:          filepath.Join(dir, ".shopsync"),
		DBPath:           filepath.Join(dir, ".shopsync", "shopsync.db"),
		Workers:          4,
		SerialThreshold:  5,
		PollInterval:     Duration(time.Second),
		ProgressInterval: Duration(5 * time.Second),
		ItemDelay:        Duration(100 * time.Millisecond),
		CacheTTL:         Duration(6 * time.Hour),
		RetryWindow:      Duration(7 * 24 * time.Hour),
		Supplier:         RemoteConfig{RateLimit: 5},
		Storefront:       RemoteConfig{RateLimit: 10},
		LogLevel:         "info",
	}
}

// Load reads shopsync.yaml from dir, applies defaults for unset fields, and
// applies SHOPSYNC_SUPPLIER_KEY / SHOPSYNC_STOREFRONT_KEY env overrides so
// credentials can stay out of the file.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default(dir)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to dir/shopsync.yaml.
func Save(dir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SHOPSYNC_SUPPLIER_KEY"); v != "" {
		c.Supplier.APIKey = v
	}
	if v := os.Getenv("SHOPSYNC_STOREFRONT_KEY"); v != "" {
		c.Storefront.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Workers < 1 || c.Workers > 32 {
		return fmt.Errorf("workers must be between 1 and 32, got %d", c.Workers)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive")
	}
	return nil
}

// CacheDir returns the directory holding cached remote lookups.
func (c *Config) CacheDir() string { return filepath.Join(c.DataDir, "cache") }

// DeadLetterDir returns the directory holding dead-letter records.
func (c *Config) DeadLetterDir() string { return filepath.Join(c.DataDir, "dead_letters") }

// WorkDir returns the directory holding chunk and result files.
func (c *Config) WorkDir() string { return filepath.Join(c.DataDir, "work") }

// LogDir returns the directory holding process log files.
func (c *Config) LogDir() string { return filepath.Join(c.DataDir, "logs") }

// EnsureDirs creates all data directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.CacheDir(), c.DeadLetterDir(), c.WorkDir(), c.LogDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
