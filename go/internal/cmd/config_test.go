package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(nil, envFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, 40, cfg.TotalSeats)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "seats.json", cfg.Store.File)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 4000
total_seats: 10
static_dir: web
store:
  backend: sqlite
  sqlite_path: /var/lib/seats.db
  redis:
    key: custom:key
nats:
  subject: venue.events
`), 0o644))

	env := envFrom(map[string]string{
		"CONFIG_FILE": path,
		"TOTAL_SEATS": "12",
		"REDIS_ADDR":  "redis:6379",
		"DB_NAME":     "venue",
	})

	cfg, err := loadConfig([]string{"--seats", "20", "--log-level", "debug"}, env)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port, "file overrides default")
	assert.Equal(t, "web", cfg.StaticDir)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/seats.db", cfg.Store.SQLitePath)
	assert.Equal(t, "custom:key", cfg.Store.Redis.Key)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr, "env overrides default")
	assert.Equal(t, "venue", cfg.Store.Postgres.Database)
	assert.Equal(t, "venue.events", cfg.NATS.Subject)
	assert.Equal(t, 20, cfg.TotalSeats, "flag overrides env and file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "seats.json", cfg.Store.File, "unset flags keep lower layers")
}

func TestLoadConfig_ConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8088\n"), 0o644))

	cfg, err := loadConfig([]string{"--config", path, "--store", "memory"}, envFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, 8088, cfg.Port)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "zero seats", args: []string{"--seats", "0"}},
		{name: "negative seats env", env: map[string]string{"TOTAL_SEATS": "-1"}},
		{name: "non-numeric seats", env: map[string]string{"TOTAL_SEATS": "forty"}},
		{name: "bad port", env: map[string]string{"PORT": "http"}},
		{name: "port out of range", args: []string{"--port", "70000"}},
		{name: "unknown backend", args: []string{"--store", "mongo"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad db port", env: map[string]string{"DB_PORT": "x"}},
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "missing config file", env: map[string]string{"CONFIG_FILE": "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.args, envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}
