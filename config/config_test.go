package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/transit/config"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "network: networks/grid.json\n"))
	require.NoError(t, err)

	assert.Equal(t, "networks/grid.json", cfg.Network)
	assert.Equal(t, "filesystem", cfg.Receipts.Backend)
	assert.Equal(t, "racuni", cfg.Receipts.Directory)
	assert.Equal(t, "time", cfg.Search.Criterion)
	assert.Equal(t, "08:00", cfg.Search.Start)

	start, err := cfg.StartMinutes()
	require.NoError(t, err)
	assert.Equal(t, 480, start)
}

func TestLoadFull(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
network: https://example.com/network.zip
headers:
  Authorization: Bearer abc
receipts:
  backend: postgres
  postgres: postgres://localhost/transit
search:
  criterion: transfers
  start: "23:45"
download:
  timeout: 30s
  maxSize: 1048576
  cacheTTL: 10m
`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"Authorization": "Bearer abc"}, cfg.Headers)
	assert.Equal(t, "postgres", cfg.Receipts.Backend)
	assert.Equal(t, "postgres://localhost/transit", cfg.Receipts.Postgres)
	assert.Equal(t, "transfers", cfg.Search.Criterion)
	assert.Equal(t, 30*time.Second, cfg.Download.Timeout)
	assert.Equal(t, 1<<20, cfg.Download.MaxSize)
	assert.Equal(t, 10*time.Minute, cfg.Download.CacheTTLOr(time.Minute))

	start, err := cfg.StartMinutes()
	require.NoError(t, err)
	assert.Equal(t, 23*60+45, start)
}

func TestLoadInvalid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
	}{
		{"bad_yaml", "network: [unterminated"},
		{"bad_backend", "receipts:\n  backend: s3\n"},
		{"postgres_without_conn", "receipts:\n  backend: postgres\n"},
		{"filesystem_without_dir", "receipts:\n  backend: filesystem\n  directory: \"\"\n"},
		{"bad_criterion", "search:\n  criterion: scenery\n"},
		{"bad_start", "search:\n  start: \"24:00\"\n"},
		{"start_not_time", "search:\n  start: noon\n"},
		{"negative_size", "download:\n  maxSize: -1\n"},
		{"negative_timeout", "download:\n  timeout: -5s\n"},
		{"negative_cache_ttl", "download:\n  cacheTTL: -1m\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadCacheTTL(t *testing.T) {
	for _, tc := range []struct {
		name     string
		content  string
		expected time.Duration
	}{
		{"unset", "network: grid.json\n", 5 * time.Minute},
		{"disabled", "download:\n  cacheTTL: 0s\n", 0},
		{"set", "download:\n  cacheTTL: 90s\n", 90 * time.Second},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.Load(writeConfig(t, tc.content))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg.Download.CacheTTLOr(5*time.Minute))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}
