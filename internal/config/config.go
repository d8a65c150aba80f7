//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-shopmcp.
// Configuration is loaded from config files, then SHOPMCP_* environment
// variables (plus POSTGRES_DSN and ALLOW_WRITES), then CLI flags.
// CLI flags take precedence over everything else.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for pgedge-shopmcp.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// Schema is the namespace that is reflected and queried.
	Schema string `mapstructure:"schema"`

	// AllowWrites enables mutating tools such as seed_demo_data.
	AllowWrites bool `mapstructure:"allow_writes"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "pretty" or "json". Empty picks per command.
	LogFormat string `mapstructure:"log_format"`

	Pool  PoolConfig  `mapstructure:"pool"`
	Serve ServeConfig `mapstructure:"serve"`
	Seed  SeedConfig  `mapstructure:"seed"`
	SQL   SQLConfig   `mapstructure:"sql"`
}

// PoolConfig holds connection pool sizing.
type PoolConfig struct {
	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

// ServeConfig holds configuration for the serve subcommand.
type ServeConfig struct {
	// Transport is "stdio" or "http".
	Transport string `mapstructure:"transport"`

	// Addr is the listen address for the HTTP transport.
	Addr string `mapstructure:"addr"`

	// MetricsAddr, when set, serves /metrics on a separate listener.
	// In HTTP mode /metrics is always mounted on Addr as well.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// SeedConfig holds defaults for demo-data seeding.
type SeedConfig struct {
	Size       string `mapstructure:"size"`
	ResetFirst bool   `mapstructure:"reset_first"`
	Seed       int64  `mapstructure:"seed"`
	// Traffic names the hour-of-week shape for order timestamps.
	Traffic string `mapstructure:"traffic"`
}

// SQLConfig holds defaults for the read-only SQL tool.
type SQLConfig struct {
	DefaultMaxRows   int `mapstructure:"default_max_rows"`
	DefaultTimeoutMs int `mapstructure:"default_timeout_ms"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Schema:   "public",
		LogLevel: "info",
		Pool: PoolConfig{
			MaxConns: 10,
			MinConns: 1,
		},
		Serve: ServeConfig{
			Transport: "stdio",
			Addr:      ":8080",
		},
		Seed: SeedConfig{
			Size:       "small",
			ResetFirst: true,
			Seed:       42,
			Traffic:    "store-regional",
		},
		SQL: SQLConfig{
			DefaultMaxRows:   200,
			DefaultTimeoutMs: 5000,
		},
	}
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-shopmcp.yaml
// 3. ~/.config/pgedge-shopmcp/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-shopmcp")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-shopmcp"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	bindEnv(v)

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Connection = NormalizeDSN(cfg.Connection)
	return cfg, nil
}

// bindEnv wires SHOPMCP_* variables for every key, and the two short
// names deployments already use.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("SHOPMCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := []string{
		"connection", "schema", "allow_writes", "log_level", "log_format",
		"pool.max_conns", "pool.min_conns",
		"serve.transport", "serve.addr", "serve.metrics_addr",
		"seed.size", "seed.reset_first", "seed.seed", "seed.traffic",
		"sql.default_max_rows", "sql.default_timeout_ms",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	_ = v.BindEnv("connection", "SHOPMCP_CONNECTION", "POSTGRES_DSN")
	_ = v.BindEnv("allow_writes", "SHOPMCP_ALLOW_WRITES", "ALLOW_WRITES")
}

// NormalizeDSN rewrites driver-qualified URL schemes such as
// postgresql+psycopg:// into the plain form pgx understands.
func NormalizeDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	base, _, qualified := strings.Cut(scheme, "+")
	if !qualified {
		return dsn
	}
	if base == "postgresql" || base == "postgres" {
		return "postgres://" + rest
	}
	return dsn
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required (--connection or POSTGRES_DSN)")
	}
	if c.Schema == "" {
		return fmt.Errorf("schema must not be empty")
	}
	if c.Pool.MaxConns < 1 {
		return fmt.Errorf("pool.max_conns must be at least 1")
	}
	if c.Pool.MinConns < 0 || c.Pool.MinConns > c.Pool.MaxConns {
		return fmt.Errorf("pool.min_conns must be between 0 and pool.max_conns")
	}
	return nil
}

// ValidateServe checks configuration required for the serve command.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Serve.Transport {
	case "stdio":
	case "http":
		if c.Serve.Addr == "" {
			return fmt.Errorf("serve.addr is required for the http transport")
		}
	default:
		return fmt.Errorf("serve.transport must be 'stdio' or 'http'")
	}
	if c.SQL.DefaultMaxRows < 1 || c.SQL.DefaultMaxRows > 2000 {
		return fmt.Errorf("sql.default_max_rows must be between 1 and 2000")
	}
	if c.SQL.DefaultTimeoutMs < 100 || c.SQL.DefaultTimeoutMs > 60000 {
		return fmt.Errorf("sql.default_timeout_ms must be between 100 and 60000")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.AllowWrites {
		return fmt.Errorf("writes are disabled; set allow_writes (or ALLOW_WRITES=1) to seed")
	}
	return nil
}
