// Package config loads the client settings from a YAML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL  = "http://localhost:8001"
	DefaultDataDir = "./data"
	DefaultTimeout = 30 * time.Second
)

// Config holds the client settings
type Config struct {
	APIURL  string        `yaml:"api_url"`
	DataDir string        `yaml:"data_dir"`
	Timeout time.Duration `yaml:"timeout"`
	// SourceModule tags media uploaded from the journal
	SourceModule string      `yaml:"source_module"`
	Serve        ServeConfig `yaml:"serve"`
}

// ServeConfig is the listen address of the local archive browser
type ServeConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		DataDir:      DefaultDataDir,
		Timeout:      DefaultTimeout,
		SourceModule: "journal",
		Serve: ServeConfig{
			Host: "localhost",
			Port: "6893",
		},
	}
}

// Load reads path (skipped when empty), then .env, then ZION_* variables
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ZION_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("ZION_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ZION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ZION_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return nil
}

// Validate checks the settings are usable
func (c Config) Validate() error {
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// DBPath is the SQLite file holding tokens and archived posts
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "zion.db")
}

// IndexPath is the directory of the search index
func (c Config) IndexPath() string {
	return filepath.Join(c.DataDir, "bleve")
}
