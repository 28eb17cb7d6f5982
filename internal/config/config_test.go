package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validDB() DBConfig {
	return DBConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "imdb",
		User:     "etl",
		Schema:   "public",
		MaxConns: 4,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("Expected LogFormat 'console', got '%s'", cfg.LogFormat)
	}

	for name, db := range map[string]DBConfig{"source": cfg.Source, "warehouse": cfg.Warehouse} {
		if db.Host != "localhost" {
			t.Errorf("Expected %s host 'localhost', got '%s'", name, db.Host)
		}
		if db.Port != 5432 {
			t.Errorf("Expected %s port 5432, got %d", name, db.Port)
		}
		if db.Schema != "public" {
			t.Errorf("Expected %s schema 'public', got '%s'", name, db.Schema)
		}
		if db.MaxConns != 4 {
			t.Errorf("Expected %s max_conns 4, got %d", name, db.MaxConns)
		}
	}

	if cfg.ETL.BatchSize != 1000 {
		t.Errorf("Expected ETL.BatchSize 1000, got %d", cfg.ETL.BatchSize)
	}
	if cfg.ETL.ProgressInterval != 100000 {
		t.Errorf("Expected ETL.ProgressInterval 100000, got %d", cfg.ETL.ProgressInterval)
	}
	if cfg.ETL.SkipSchema {
		t.Error("Expected ETL.SkipSchema false")
	}
	if cfg.Query.Format != "table" {
		t.Errorf("Expected Query.Format 'table', got '%s'", cfg.Query.Format)
	}
	if cfg.Query.Alpha != 0.05 {
		t.Errorf("Expected Query.Alpha 0.05, got %f", cfg.Query.Alpha)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "missing source host",
			mutate:    func(c *Config) { c.Source.Host = "" },
			wantError: true,
		},
		{
			name:      "missing warehouse database",
			mutate:    func(c *Config) { c.Warehouse.Database = "" },
			wantError: true,
		},
		{
			name:      "missing warehouse user",
			mutate:    func(c *Config) { c.Warehouse.User = "" },
			wantError: true,
		},
		{
			name:      "port out of range",
			mutate:    func(c *Config) { c.Source.Port = 70000 },
			wantError: true,
		},
		{
			name:      "zero max conns",
			mutate:    func(c *Config) { c.Warehouse.MaxConns = 0 },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Source = validDB()
			cfg.Warehouse = validDB()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateETL(t *testing.T) {
	tests := []struct {
		name      string
		etl       ETLConfig
		wantError bool
	}{
		{
			name:      "valid etl config",
			etl:       ETLConfig{BatchSize: 500, ProgressInterval: 1000},
			wantError: false,
		},
		{
			name:      "zero batch size",
			etl:       ETLConfig{BatchSize: 0, ProgressInterval: 1000},
			wantError: true,
		},
		{
			name:      "zero progress interval",
			etl:       ETLConfig{BatchSize: 500, ProgressInterval: 0},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Source: validDB(), Warehouse: validDB(), ETL: tt.etl}
			err := cfg.ValidateETL()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     QueryConfig
		wantError bool
	}{
		{name: "table", query: QueryConfig{Format: "table", Alpha: 0.05}},
		{name: "json", query: QueryConfig{Format: "json", Alpha: 0.01}},
		{name: "csv", query: QueryConfig{Format: "csv", Alpha: 0.1}},
		{name: "unknown format", query: QueryConfig{Format: "xml", Alpha: 0.05}, wantError: true},
		{name: "alpha zero", query: QueryConfig{Format: "table", Alpha: 0}, wantError: true},
		{name: "alpha one", query: QueryConfig{Format: "table", Alpha: 1}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Source is deliberately empty: queries only need the warehouse.
			cfg := &Config{Warehouse: validDB(), Query: tt.query}
			err := cfg.ValidateQuery()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConnString(t *testing.T) {
	db := DBConfig{
		Host:     "db.example.com",
		Port:     5433,
		Database: "imdb",
		User:     "etl",
		Password: "it's secret",
		SSLMode:  "disable",
	}

	got := db.ConnString()
	want := `host=db.example.com port=5433 dbname=imdb user=etl password='it\'s secret' sslmode=disable`
	if got != want {
		t.Errorf("ConnString mismatch:\n got: %s\nwant: %s", got, want)
	}

	db.Password = ""
	if strings.Contains(db.ConnString(), "password=") {
		t.Error("ConnString should omit an empty password")
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgedge-filmwh.yaml")

	configContent := `
log_level: "debug"
log_format: "json"

source:
  host: "source.internal"
  port: 5433
  database: "imdb"
  user: "reader"
  password: "readerpass"
  schema: "stadvdb"

warehouse:
  host: "dw.internal"
  database: "imdb_dw"
  user: "loader"
  schema: "dw_schema"
  max_conns: 2

etl:
  batch_size: 250
  progress_interval: 5000
  skip_schema: true

query:
  format: "csv"
  alpha: 0.01
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel mismatch: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat mismatch: %s", cfg.LogFormat)
	}
	if cfg.Source.Host != "source.internal" || cfg.Source.Port != 5433 {
		t.Errorf("Source address mismatch: %s:%d", cfg.Source.Host, cfg.Source.Port)
	}
	if cfg.Source.Schema != "stadvdb" {
		t.Errorf("Source.Schema mismatch: %s", cfg.Source.Schema)
	}
	if cfg.Warehouse.Schema != "dw_schema" {
		t.Errorf("Warehouse.Schema mismatch: %s", cfg.Warehouse.Schema)
	}
	// Unset keys keep their defaults.
	if cfg.Warehouse.Port != 5432 {
		t.Errorf("Warehouse.Port should default to 5432, got %d", cfg.Warehouse.Port)
	}
	if cfg.Warehouse.MaxConns != 2 {
		t.Errorf("Warehouse.MaxConns mismatch: %d", cfg.Warehouse.MaxConns)
	}
	if cfg.ETL.BatchSize != 250 {
		t.Errorf("ETL.BatchSize mismatch: %d", cfg.ETL.BatchSize)
	}
	if !cfg.ETL.SkipSchema {
		t.Error("ETL.SkipSchema mismatch")
	}
	if cfg.Query.Format != "csv" {
		t.Errorf("Query.Format mismatch: %s", cfg.Query.Format)
	}
	if cfg.Query.Alpha != 0.01 {
		t.Errorf("Query.Alpha mismatch: %f", cfg.Query.Alpha)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SOURCE_HOST", "env-source")
	t.Setenv("SOURCE_PORT", "6543")
	t.Setenv("SOURCE_DB", "imdb_env")
	t.Setenv("SOURCE_SCHEMA", "stadvdb")
	t.Setenv("DW_USER", "env-loader")
	t.Setenv("DW_PASS", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Host != "env-source" {
		t.Errorf("Source.Host mismatch: %s", cfg.Source.Host)
	}
	if cfg.Source.Port != 6543 {
		t.Errorf("Source.Port mismatch: %d", cfg.Source.Port)
	}
	if cfg.Source.Database != "imdb_env" {
		t.Errorf("Source.Database mismatch: %s", cfg.Source.Database)
	}
	if cfg.Source.Schema != "stadvdb" {
		t.Errorf("Source.Schema mismatch: %s", cfg.Source.Schema)
	}
	if cfg.Warehouse.User != "env-loader" || cfg.Warehouse.Password != "env-secret" {
		t.Errorf("Warehouse credentials mismatch: %s/%s", cfg.Warehouse.User, cfg.Warehouse.Password)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgedge-filmwh.yaml")
	if err := os.WriteFile(configPath, []byte("warehouse:\n  host: file-host\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	t.Setenv("DW_HOST", "env-host")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Warehouse.Host != "env-host" {
		t.Errorf("Expected environment to win, got %s", cfg.Warehouse.Host)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load should error when specified config file doesn't exist")
	}
}

func TestLoadConfigDefaultPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load should not error with empty path, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load should return default config")
	}
	if cfg.ETL.BatchSize != 1000 {
		t.Errorf("Expected default batch size 1000, got %d", cfg.ETL.BatchSize)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidContent := `
source: [invalid yaml
  that: won't parse
`
	err := os.WriteFile(configPath, []byte(invalidContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err = Load(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}
