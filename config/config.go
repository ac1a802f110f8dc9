// Package config provides configuration loading for simflow runs.
//
// Priority: defaults → YAML file → environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/simflow/checkpoint"
)

// Config is the complete configuration for a simflow invocation.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Run        RunConfig        `yaml:"run"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development"`
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// TelemetryConfig configures OTel trace export.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Insecure    bool    `yaml:"insecure"`
}

// CheckpointConfig selects and configures the checkpoint backend.
type CheckpointConfig struct {
	// Type is one of file, redis, sqlite.
	Type checkpoint.StoreType `yaml:"type"`
	// Dir is the base directory for the file backend.
	Dir string `yaml:"dir"`
	// SQLitePath is the database path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
	// Redis configures the redis backend.
	Redis checkpoint.RedisStoreConfig `yaml:"redis"`
}

// RunConfig configures the reference simulation runs.
type RunConfig struct {
	// Replicas is how many independent runs execute concurrently, each with
	// its own manager and plugin set.
	Replicas int `yaml:"replicas"`
	// MaxMoves is the iteration limit handed to the report plugin.
	// Zero means unbounded.
	MaxMoves uint64 `yaml:"max_moves"`
	// MaxSteps is a hard backstop on the loop independent of plugins.
	MaxSteps uint64 `yaml:"max_steps"`
	// Seed seeds the first replica; replica i uses Seed+i.
	Seed uint64 `yaml:"seed"`
	// Temperature of the Metropolis walk.
	Temperature float64 `yaml:"temperature"`
	// SaveSchedule enables the exponential save scheduler plugin.
	SaveSchedule bool `yaml:"save_schedule"`
	// WallClockInterval throttles progress logs; zero disables the plugin.
	WallClockInterval time.Duration `yaml:"wall_clock_interval"`
	// WallClockStepPeriod is how often (in steps) the wall-clock plugin
	// asks to be consulted.
	WallClockStepPeriod uint64 `yaml:"wall_clock_step_period"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "simflow",
			SampleRatio: 1.0,
			Insecure:    true,
		},
		Checkpoint: CheckpointConfig{
			Type: checkpoint.StoreTypeFile,
			Dir:  "./data",
			Redis: checkpoint.RedisStoreConfig{
				Addr: "localhost:6379",
			},
			SQLitePath: "./data/checkpoints.db",
		},
		Run: RunConfig{
			Replicas:            1,
			MaxMoves:            1_000_000,
			Seed:                1,
			Temperature:         1.0,
			SaveSchedule:        true,
			WallClockInterval:   30 * time.Second,
			WallClockStepPeriod: 100_000,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides the settings that commonly differ between deployments.
func (c *Config) applyEnv() {
	if v := os.Getenv("SIMFLOW_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SIMFLOW_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("SIMFLOW_REDIS_ADDR"); v != "" {
		c.Checkpoint.Redis.Addr = v
	}
	if v := os.Getenv("SIMFLOW_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("SIMFLOW_REPLICAS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Run.Replicas = n
		}
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	switch c.Checkpoint.Type {
	case checkpoint.StoreTypeFile, checkpoint.StoreTypeRedis, checkpoint.StoreTypeSQLite:
	default:
		return fmt.Errorf("invalid checkpoint type %q", c.Checkpoint.Type)
	}
	if c.Run.Replicas < 1 {
		return fmt.Errorf("run.replicas must be >= 1, got %d", c.Run.Replicas)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be in [0,1], got %g", c.Telemetry.SampleRatio)
	}
	return nil
}

// BuildLogger builds a zap logger from the log configuration.
func (c LogConfig) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	if c.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
