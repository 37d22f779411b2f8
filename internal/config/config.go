// Package config loads the server settings from an optional YAML file in the
// data directory, with environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up inside the data directory
	FileName = "config.yaml"

	dataDirName = ".searchindex-mcp"

	defaultCacheTTL   = 24 * time.Hour
	defaultMaxResults = 10
	maxResultsCeiling = 20
)

// Environment overrides
const (
	EnvSource     = "SEARCHINDEX_SOURCE"
	EnvBaseURL    = "SEARCHINDEX_BASE_URL"
	EnvDataDir    = "SEARCHINDEX_DATA_DIR"
	EnvCacheTTL   = "SEARCHINDEX_CACHE_TTL"
	EnvMaxResults = "SEARCHINDEX_MAX_RESULTS"
	EnvWatch      = "SEARCHINDEX_WATCH"
)

// Config holds the server settings.
type Config struct {
	// Source is a searchindex.js path or http(s) URL. Empty means the
	// embedded index.
	Source string `yaml:"source"`

	// BaseURL is the published site root, used to build page links.
	BaseURL string `yaml:"baseURL"`

	// DataDir holds the catalog, lock file and config file.
	DataDir string `yaml:"-"`

	// CacheTTL is how long a loaded index counts as fresh.
	CacheTTL time.Duration `yaml:"cacheTTL"`

	// MaxResults is the default search result count, capped at 20.
	MaxResults int `yaml:"maxResults"`

	// Watch reloads a file source whenever it changes.
	Watch bool `yaml:"watch"`
}

// Default returns the settings used when no file or env var says otherwise.
func Default() Config {
	return Config{
		CacheTTL:   defaultCacheTTL,
		MaxResults: defaultMaxResults,
	}
}

// Load resolves the data directory, reads config.yaml from it when present
// and applies environment overrides.
func Load() (Config, error) {
	cfg := Default()
	cfg.DataDir = ResolveDataDir()

	if err := cfg.readFile(filepath.Join(cfg.DataDir, FileName)); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, nil
}

// LoadFile reads a specific config file, then applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	cfg.DataDir = filepath.Dir(path)

	if err := cfg.readFile(path); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvSource); v != "" {
		c.Source = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvCacheTTL, err)
		}
		c.CacheTTL = ttl
	}
	if v := os.Getenv(EnvMaxResults); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxResults, err)
		}
		c.MaxResults = n
	}
	if v := os.Getenv(EnvWatch); v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWatch, err)
		}
		c.Watch = watch
	}
	return nil
}

func (c *Config) normalize() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.MaxResults <= 0 {
		c.MaxResults = defaultMaxResults
	}
	if c.MaxResults > maxResultsCeiling {
		c.MaxResults = maxResultsCeiling
	}
}

// ClampResults applies the default and ceiling to a requested result count.
func (c Config) ClampResults(requested int) int {
	if requested <= 0 {
		return c.MaxResults
	}
	if requested > maxResultsCeiling {
		return maxResultsCeiling
	}
	return requested
}

// ResolveDataDir picks the data directory:
//  1. $SEARCHINDEX_DATA_DIR
//  2. ~/.searchindex-mcp (created if missing)
//  3. ./data as a last resort
func ResolveDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("Warning: Could not create data directory at %s: %v", dir, err)
		}
		return dir
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, dataDirName)

		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			return userDataDir
		}

		if err := os.MkdirAll(userDataDir, 0755); err == nil {
			log.Printf("✓ Data directory created: %s", userDataDir)
			return userDataDir
		}

		log.Printf("Warning: Could not create user data directory at %s: %v", userDataDir, err)
	} else {
		log.Printf("Warning: Could not determine user home directory: %v", err)
	}

	dataDir := filepath.Join(".", "data")
	log.Printf("⚠️  Data directory (fallback): %s", dataDir)
	os.MkdirAll(dataDir, 0755)
	return dataDir
}
