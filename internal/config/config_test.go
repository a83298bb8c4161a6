// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestDefaultImportSettings(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if cfg.Import.BatchSize != 50 {
		t.Errorf("expected default batch size 50, got %d", cfg.Import.BatchSize)
	}
	if cfg.Import.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.Import.MaxRetries)
	}
	if cfg.Import.RetryBaseDelay != time.Second {
		t.Errorf("expected default retry base delay 1s, got %s", cfg.Import.RetryBaseDelay)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty listen addr",
			mutate:  func(c *Config) { c.Server.ListenAddr = "" },
			wantErr: "SERVER_LISTEN_ADDR",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "DATABASE_PATH",
		},
		{
			name:    "zero tx timeout",
			mutate:  func(c *Config) { c.Database.TxTimeout = 0 },
			wantErr: "DATABASE_TX_TIMEOUT",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Import.BatchSize = 0 },
			wantErr: "IMPORT_BATCH_SIZE",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Import.MaxRetries = -1 },
			wantErr: "IMPORT_MAX_RETRIES",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOGGING_LEVEL",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOGGING_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"REWIND_SERVER_LISTEN_ADDR", "server.listen_addr"},
		{"REWIND_DATABASE_PATH", "database.path"},
		{"REWIND_DATABASE_TX_TIMEOUT", "database.tx_timeout"},
		{"REWIND_IMPORT_BATCH_SIZE", "import.batch_size"},
		{"REWIND_IMPORT_RECORDS_PER_SECOND", "import.records_per_second"},
		{"REWIND_LOGGING_LEVEL", "logging.level"},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.input); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoadUsesEnvOverrides(t *testing.T) {
	t.Setenv("REWIND_IMPORT_BATCH_SIZE", "25")
	t.Setenv("REWIND_DATABASE_PATH", ":memory:")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Import.BatchSize != 25 {
		t.Errorf("expected env override batch size 25, got %d", cfg.Import.BatchSize)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("expected env override database path, got %q", cfg.Database.Path)
	}
}
