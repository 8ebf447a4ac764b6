package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyEnv(noEnv)
	cfg.ApplyDefaults()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.GRPCPort)
	assert.Equal(t, "dev-token", cfg.Server.APIToken)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 360, cfg.Projection.HorizonMonths)
	assert.Equal(t, "USD", cfg.Projection.Currency)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=wealthflow sslmode=disable", cfg.ConnString())
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{Server: ServerConfig{APIToken: "from-file"}}
	cfg.ApplyEnv(envOf(map[string]string{
		"DB_HOST":          "db",
		"API_TOKEN":        "secret",
		"GRPC_PORT":        "9090",
		"PRIME_INDEX_PATH": "/data/prime.csv",
		"LOG_LEVEL":        "",
	}))
	cfg.ApplyDefaults()

	assert.Equal(t, "secret", cfg.Server.APIToken)
	assert.Equal(t, ":9090", cfg.Server.GRPCPort)
	assert.Equal(t, "/data/prime.csv", cfg.Index.PrimePath)
	assert.Equal(t, "info", cfg.LogLevel, "empty variables are ignored")
	assert.Contains(t, cfg.ConnString(), "host=db ")

	cfg.ApplyEnv(envOf(map[string]string{"DB_CONN_STR": "postgres://u:p@h/db"}))
	assert.Equal(t, "postgres://u:p@h/db", cfg.ConnString())
}

func TestLoad_YAMLAndJSON(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "YAML",
			file: "planner.yaml",
			content: `
server:
  api_token: yaml-token
projection:
  horizon_months: 120
  currency: EUR
log_level: debug
`,
		},
		{
			name:    "JSON",
			file:    "planner.json",
			content: `{"server": {"api_token": "yaml-token"}, "projection": {"horizon_months": 120, "currency": "EUR"}, "log_level": "debug"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"API_TOKEN", "LOG_LEVEL"} {
				t.Setenv(key, "")
			}
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := Load(path)

			require.NoError(t, err)
			assert.Equal(t, "yaml-token", cfg.Server.APIToken)
			assert.Equal(t, 120, cfg.Projection.HorizonMonths)
			assert.Equal(t, "EUR", cfg.Projection.Currency)
			assert.Equal(t, "debug", cfg.LogLevel)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "Unparseable", content: "server: [", errMsg: "parse config"},
		{name: "Negative horizon", content: "projection:\n  horizon_months: -1\n", errMsg: "horizon_months must be positive"},
		{name: "Bad currency", content: "projection:\n  currency: euro\n", errMsg: "three-letter code"},
		{name: "Bad log level", content: "log_level: loud\n", errMsg: "unknown log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", "")
			path := filepath.Join(t.TempDir(), "planner.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := Load(path)

			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}
