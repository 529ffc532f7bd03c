// Package config defines configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig controls the HTTP listener, the admin secret, and the
// graceful-shutdown window.
type ServerConfig struct {
	ListenAddr            string `toml:"listen_addr"`
	AdminSecret           string `toml:"admin_secret"`
	GracefulShutdownSecs  uint64 `toml:"graceful_shutdown_secs"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{ListenAddr: "0.0.0.0:7856", GracefulShutdownSecs: 10}
}

// DatabaseConfig controls the SQLite file and pool sizing.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	PoolMaxSize  uint32 `toml:"pool_max_size"`
	BusyTimeoutMS uint64 `toml:"busy_timeout_ms"`
}

func defaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{Path: "data/data.db", PoolMaxSize: 8, BusyTimeoutMS: 5000}
}

// CrawlerConfig controls the crawler subprocess timeout.
type CrawlerConfig struct {
	TimeoutSecs uint64 `toml:"timeout_secs"`
}

func defaultCrawlerConfig() CrawlerConfig {
	return CrawlerConfig{TimeoutSecs: 300}
}

// EmbeddingConfig controls the embedder subprocess (timeout and
// concurrency). OverFetchFactor is parsed but not read anywhere: the
// similarity handlers always over-fetch by a fixed factor of 4.
type EmbeddingConfig struct {
	TimeoutSecs      uint64 `toml:"timeout_secs"`
	OverFetchFactor  uint32 `toml:"over_fetch_factor"`
	Concurrency      uint32 `toml:"concurrency"`
}

func defaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{TimeoutSecs: 30, OverFetchFactor: 4, Concurrency: 4}
}

// LoggingConfig controls the base slog level.
type LoggingConfig struct {
	Level string `toml:"level"`
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: "info"}
}

// FileConfig is the subset of configuration read from the TOML file at
// $CONFIG_PATH (default "config.toml"). The environment-variable overlay
// is a separate Config, parsed by LoadEnv.
type FileConfig struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Crawler   CrawlerConfig   `toml:"crawler"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Logging   LoggingConfig   `toml:"logging"`

	// ConfigPath is the resolved absolute path to the loaded file, not parsed from it.
	ConfigPath string `toml:"-"`
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Server:    defaultServerConfig(),
		Database:  defaultDatabaseConfig(),
		Crawler:   defaultCrawlerConfig(),
		Embedding: defaultEmbeddingConfig(),
		Logging:   defaultLoggingConfig(),
		ConfigPath: "config.toml",
	}
}

// LoadFile reads and parses the TOML file named by $CONFIG_PATH (or
// "config.toml" when unset), resolves database.path relative to the file's
// directory, and validates the result. It exits the process on a missing or
// unparsable file, matching the fail-fast startup behavior the rest of the
// stack expects from its config loader.
func LoadFile() FileConfig {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.toml"
	}

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to read configuration file %q: %v\n", path, err)
		os.Exit(1)
	}

	cfg := defaultFileConfig()
	if err := toml.Unmarshal(content, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to parse configuration file %q: %v\n", path, err)
		os.Exit(1)
	}

	configDir := filepath.Dir(path)
	if !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(configDir, cfg.Database.Path)
	}

	if abs, err := filepath.Abs(path); err == nil {
		cfg.ConfigPath = abs
	} else {
		cfg.ConfigPath = path
	}

	cfg.Validate()
	return cfg
}

// Validate warns about an unset or placeholder admin secret and exits the
// process when embedding.concurrency falls outside [1, 32].
func (c FileConfig) Validate() {
	if c.Server.AdminSecret == "" || c.Server.AdminSecret == "changeme" {
		secret := c.Server.AdminSecret
		if secret == "" {
			secret = "(empty)"
		}
		fmt.Fprintf(os.Stderr, "WARNING: admin_secret is %q - change it before deploying to production\n", secret)
	}

	if c.Embedding.Concurrency < 1 || c.Embedding.Concurrency > 32 {
		fmt.Fprintf(os.Stderr, "FATAL: embedding.concurrency must be between 1 and 32, got %d\n", c.Embedding.Concurrency)
		os.Exit(1)
	}
}
