package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxResults)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Postgres.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soorch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  defaultLimit: 5
  maxResults: 50
redis:
  enabled: true
  addr: cache:6379
  cacheTTL: 2m
logging:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 1024, cfg.Search.CacheSize, "unset fields keep their defaults")
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SOORCH_REDIS_ENABLED", "true")
	t.Setenv("SOORCH_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("SOORCH_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SOORCH_POSTGRES_PORT", "not-a-number")
	t.Setenv("SOORCH_SEARCH_DEFAULT_LIMIT", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 3, cfg.Search.DefaultLimit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "limit above max", mutate: func(c *Config) { c.Search.DefaultLimit = 500 }, errMsg: "exceeds"},
		{name: "negative cache", mutate: func(c *Config) { c.Search.CacheSize = -1 }, errMsg: "cacheSize"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, errMsg: "logging.format"},
		{name: "kafka without brokers", mutate: func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}, errMsg: "kafka.brokers"},
		{name: "metrics port", mutate: func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 0
		}, errMsg: "metrics.port"},
		{name: "unlimited results", mutate: func(c *Config) {
			c.Search.MaxResults = 0
			c.Search.DefaultLimit = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := Default().Postgres
	assert.Equal(t,
		"host=localhost port=5432 user=soorch password=localdev dbname=soorch sslmode=disable",
		p.DSN())
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "soorch.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
