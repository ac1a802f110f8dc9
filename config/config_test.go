package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/simflow/checkpoint"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, checkpoint.StoreTypeFile, cfg.Checkpoint.Type)
	assert.Equal(t, 1, cfg.Run.Replicas)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Run.MaxMoves, cfg.Run.MaxMoves)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
checkpoint:
  type: sqlite
  sqlite_path: /tmp/ckpt.db
run:
  replicas: 4
  max_moves: 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, checkpoint.StoreTypeSQLite, cfg.Checkpoint.Type)
	assert.Equal(t, "/tmp/ckpt.db", cfg.Checkpoint.SQLitePath)
	assert.Equal(t, 4, cfg.Run.Replicas)
	assert.Equal(t, uint64(500), cfg.Run.MaxMoves)
	// Untouched settings keep their defaults.
	assert.Equal(t, Default().Metrics.Addr, cfg.Metrics.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")
	t.Setenv("SIMFLOW_LOG_LEVEL", "error")
	t.Setenv("SIMFLOW_REDIS_ADDR", "redis:6380")
	t.Setenv("SIMFLOW_REPLICAS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "redis:6380", cfg.Checkpoint.Redis.Addr)
	assert.Equal(t, 3, cfg.Run.Replicas)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "run: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, wantErr: false},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "bad checkpoint type", mutate: func(c *Config) { c.Checkpoint.Type = "mongo" }, wantErr: true},
		{name: "zero replicas", mutate: func(c *Config) { c.Run.Replicas = 0 }, wantErr: true},
		{name: "sample ratio out of range", mutate: func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogConfig_BuildLogger(t *testing.T) {
	logger, err := LogConfig{Level: "debug", Development: true}.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = LogConfig{Level: "loud"}.BuildLogger()
	assert.Error(t, err)
}
