// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

// Package config loads and validates Rewind's configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Rewind service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Import   ImportConfig   `koanf:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `koanf:"listen_addr"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// ImportRequestsPerMinute rate-limits import submissions per client IP.
	ImportRequestsPerMinute int `koanf:"import_requests_per_minute"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" opens an in-memory store.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`

	// TxTimeout bounds each per-chunk import transaction.
	TxTimeout time.Duration `koanf:"tx_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ImportConfig holds activity-log import settings.
type ImportConfig struct {
	// BatchSize is the number of records persisted per transaction.
	BatchSize int `koanf:"batch_size"`

	// MaxRetries is the number of retries per chunk on transient
	// storage errors, in addition to the initial attempt.
	MaxRetries int `koanf:"max_retries"`

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// RecordsPerSecond throttles import processing. 0 = unthrottled.
	RecordsPerSecond float64 `koanf:"records_per_second"`
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("SERVER_LISTEN_ADDR must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Server.ImportRequestsPerMinute < 0 {
		return fmt.Errorf("SERVER_IMPORT_REQUESTS_PER_MINUTE must not be negative, got %d", c.Server.ImportRequestsPerMinute)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DATABASE_THREADS must not be negative, got %d", c.Database.Threads)
	}
	if c.Database.TxTimeout <= 0 {
		return fmt.Errorf("DATABASE_TX_TIMEOUT must be positive, got %s", c.Database.TxTimeout)
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.BatchSize < 1 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be at least 1, got %d", c.Import.BatchSize)
	}
	if c.Import.MaxRetries < 0 {
		return fmt.Errorf("IMPORT_MAX_RETRIES must not be negative, got %d", c.Import.MaxRetries)
	}
	if c.Import.RetryBaseDelay <= 0 {
		return fmt.Errorf("IMPORT_RETRY_BASE_DELAY must be positive, got %s", c.Import.RetryBaseDelay)
	}
	if c.Import.RecordsPerSecond < 0 {
		return fmt.Errorf("IMPORT_RECORDS_PER_SECOND must not be negative, got %f", c.Import.RecordsPerSecond)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOGGING_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOGGING_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
