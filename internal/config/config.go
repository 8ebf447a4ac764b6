// Package config loads the planner settings from an optional YAML (or JSON)
// file, overlays environment variables and fills in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGRPCPort = ":8080"
	DefaultAPIToken = "dev-token"
	DefaultLogLevel = "info"
	DefaultHorizon  = 360
	DefaultCurrency = "USD"
)

// Config is the complete runtime configuration
type Config struct {
	Database   DatabaseConfig   `json:"database" yaml:"database"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Index      IndexConfig      `json:"index" yaml:"index"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Projection ProjectionConfig `json:"projection" yaml:"projection"`
	LogLevel   string           `json:"log_level" yaml:"log_level"`
}

// DatabaseConfig holds the Postgres connection settings.
// ConnStr wins over the individual fields when set.
type DatabaseConfig struct {
	ConnStr  string `json:"conn_str" yaml:"conn_str"`
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Name     string `json:"name" yaml:"name"`
}

// ServerConfig holds the gRPC listener settings
type ServerConfig struct {
	GRPCPort string `json:"grpc_port" yaml:"grpc_port"`
	APIToken string `json:"api_token" yaml:"api_token"`
}

// IndexConfig points at the benchmark-rate and price-index CSV files
type IndexConfig struct {
	PrimePath string `json:"prime_path" yaml:"prime_path"`
	CPIPath   string `json:"cpi_path" yaml:"cpi_path"`
}

// CacheConfig points at the optional SQLite projection cache
type CacheConfig struct {
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
}

// ProjectionConfig holds projection defaults
type ProjectionConfig struct {
	HorizonMonths int    `json:"horizon_months" yaml:"horizon_months"`
	Currency      string `json:"currency" yaml:"currency"`
}

// Load reads path (if non-empty), applies the environment and defaults, and validates
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// Try YAML first, fall back to JSON
		if err := yaml.Unmarshal(data, cfg); err != nil {
			if jerr := json.Unmarshal(data, cfg); jerr != nil {
				return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
			}
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays every variable lookup reports as set
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Database.ConnStr, "DB_CONN_STR")
	set(&c.Database.Host, "DB_HOST")
	set(&c.Database.Port, "DB_PORT")
	set(&c.Database.User, "DB_USER")
	set(&c.Database.Password, "DB_PASSWORD")
	set(&c.Database.Name, "DB_NAME")
	set(&c.Server.APIToken, "API_TOKEN")
	set(&c.Server.GRPCPort, "GRPC_PORT")
	set(&c.Index.PrimePath, "PRIME_INDEX_PATH")
	set(&c.Index.CPIPath, "CPI_INDEX_PATH")
	set(&c.Cache.SQLitePath, "CACHE_SQLITE_PATH")
	set(&c.LogLevel, "LOG_LEVEL")
}

// ApplyDefaults fills every empty setting
func (c *Config) ApplyDefaults() {
	def := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	def(&c.Database.Host, "localhost")
	def(&c.Database.Port, "5432")
	def(&c.Database.User, "postgres")
	def(&c.Database.Password, "postgres")
	def(&c.Database.Name, "wealthflow")
	def(&c.Server.GRPCPort, DefaultGRPCPort)
	def(&c.Server.APIToken, DefaultAPIToken)
	def(&c.LogLevel, DefaultLogLevel)
	def(&c.Projection.Currency, DefaultCurrency)
	if c.Projection.HorizonMonths == 0 {
		c.Projection.HorizonMonths = DefaultHorizon
	}
	if !strings.Contains(c.Server.GRPCPort, ":") {
		c.Server.GRPCPort = ":" + c.Server.GRPCPort
	}
}

// ConnString returns the Postgres connection string
func (c *Config) ConnString() string {
	if c.Database.ConnStr != "" {
		return c.Database.ConnStr
	}
	d := c.Database
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.APIToken == "" {
		return errors.New("server.api_token is required")
	}
	if c.Projection.HorizonMonths < 1 {
		return errors.New("projection.horizon_months must be positive")
	}
	if len(c.Projection.Currency) != 3 {
		return fmt.Errorf("projection.currency must be a three-letter code, got %q", c.Projection.Currency)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
