//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-filmwh.
//
// Values are layered, lowest precedence first: defaults, the YAML config
// file, a .env file in the working directory, process environment variables
// and finally CLI flags (applied by the cli package).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for pgedge-filmwh.
type Config struct {
	// Source is the transactional database the ETL reads from.
	Source DBConfig `mapstructure:"source"`

	// Warehouse is the star-schema database the ETL writes to.
	Warehouse DBConfig `mapstructure:"warehouse"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `mapstructure:"log_format"`

	// ETL holds configuration for the etl subcommand.
	ETL ETLConfig `mapstructure:"etl"`

	// Query holds configuration for the query and ttest subcommands.
	Query QueryConfig `mapstructure:"query"`
}

// DBConfig describes one PostgreSQL connection.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// Schema is applied as the session search_path.
	Schema string `mapstructure:"schema"`

	SSLMode string `mapstructure:"sslmode"`

	// MaxConns bounds the pgx pool for this store.
	MaxConns int32 `mapstructure:"max_conns"`
}

// ETLConfig holds configuration for warehouse loading.
type ETLConfig struct {
	// BatchSize is the number of rows per multi-row INSERT.
	BatchSize int `mapstructure:"batch_size"`

	// ProgressInterval is how often to log load progress (in rows).
	ProgressInterval int64 `mapstructure:"progress_interval"`

	// SkipSchema keeps the existing warehouse tables instead of recreating them.
	SkipSchema bool `mapstructure:"skip_schema"`
}

// QueryConfig holds configuration for OLAP output.
type QueryConfig struct {
	// Format is the result format: table, json or csv.
	Format string `mapstructure:"format"`

	// Alpha is the significance threshold used by t-test reports.
	Alpha float64 `mapstructure:"alpha"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"source.host":        "SOURCE_HOST",
	"source.port":        "SOURCE_PORT",
	"source.database":    "SOURCE_DB",
	"source.user":        "SOURCE_USER",
	"source.password":    "SOURCE_PASS",
	"source.schema":      "SOURCE_SCHEMA",
	"warehouse.host":     "DW_HOST",
	"warehouse.port":     "DW_PORT",
	"warehouse.database": "DW_DB",
	"warehouse.user":     "DW_USER",
	"warehouse.password": "DW_PASS",
	"warehouse.schema":   "DW_SCHEMA",
	"log_level":          "FILMWH_LOG_LEVEL",
	"log_format":         "FILMWH_LOG_FORMAT",
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Source:    defaultDBConfig(),
		Warehouse: defaultDBConfig(),
		LogLevel:  "info",
		LogFormat: "console",
		ETL: ETLConfig{
			BatchSize:        1000,
			ProgressInterval: 100000,
		},
		Query: QueryConfig{
			Format: "table",
			Alpha:  0.05,
		},
	}
}

func defaultDBConfig() DBConfig {
	return DBConfig{
		Host:     "localhost",
		Port:     5432,
		Schema:   "public",
		SSLMode:  "prefer",
		MaxConns: 4,
	}
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-filmwh.yaml
// 3. ~/.config/pgedge-filmwh/config.yaml
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("pgedge-filmwh")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-filmwh"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// ConnString renders the store as a keyword/value DSN understood by pgx.
// The schema is not part of the DSN; see db.Connect.
func (d DBConfig) ConnString() string {
	parts := []string{
		"host=" + quoteDSN(d.Host),
		fmt.Sprintf("port=%d", d.Port),
		"dbname=" + quoteDSN(d.Database),
	}
	if d.User != "" {
		parts = append(parts, "user="+quoteDSN(d.User))
	}
	if d.Password != "" {
		parts = append(parts, "password="+quoteDSN(d.Password))
	}
	if d.SSLMode != "" {
		parts = append(parts, "sslmode="+d.SSLMode)
	}
	return strings.Join(parts, " ")
}

// quoteDSN quotes a DSN value when it contains spaces, quotes or backslashes.
func quoteDSN(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

func (d DBConfig) validate(name string) error {
	if d.Host == "" {
		return fmt.Errorf("%s host is required", name)
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("%s port must be between 1 and 65535", name)
	}
	if d.Database == "" {
		return fmt.Errorf("%s database is required", name)
	}
	if d.User == "" {
		return fmt.Errorf("%s user is required", name)
	}
	if d.MaxConns < 1 {
		return fmt.Errorf("%s max_conns must be at least 1", name)
	}
	return nil
}

// Validate checks that both stores are configured.
func (c *Config) Validate() error {
	if err := c.Source.validate("source"); err != nil {
		return err
	}
	return c.Warehouse.validate("warehouse")
}

// ValidateETL checks configuration required for the etl command.
func (c *Config) ValidateETL() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ETL.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if c.ETL.ProgressInterval < 1 {
		return fmt.Errorf("progress_interval must be at least 1")
	}
	return nil
}

// ValidateWarehouse checks that the warehouse store is configured.
func (c *Config) ValidateWarehouse() error {
	return c.Warehouse.validate("warehouse")
}

// ValidateQuery checks configuration required for warehouse queries.
func (c *Config) ValidateQuery() error {
	if err := c.ValidateWarehouse(); err != nil {
		return err
	}
	switch c.Query.Format {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("query format must be 'table', 'json' or 'csv'")
	}
	if c.Query.Alpha <= 0 || c.Query.Alpha >= 1 {
		return fmt.Errorf("alpha must be between 0 and 1")
	}
	return nil
}

// ValidateSeed checks configuration required for seeding the source store.
func (c *Config) ValidateSeed() error {
	return c.Source.validate("source")
}
