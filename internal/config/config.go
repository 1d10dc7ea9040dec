// Package config loads gridview's YAML configuration file, grounded
// on cmd/graphdb-upgrade/main.go's yaml.v3-based ClusterConfig loading
// and validated with internal/validation's fluent ConfigValidator, the
// way pkg/validation/config.go's examples validate a loaded struct.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gridview/internal/validation"
)

// Config is gridview's full runtime configuration.
type Config struct {
	DataFile         string `yaml:"data_file"`
	IndexGranularity uint64 `yaml:"index_granularity"`
	UseMmap          bool   `yaml:"use_mmap"`
	ReadBufferSize   int    `yaml:"read_buffer_size"`

	// IndexPath is the optional cached-index location from spec.md §6
	// ("Optional cached-index location"). Empty means derive it from
	// DataFile (append ".idx").
	IndexPath string `yaml:"index_path"`

	// MaxRowsCeiling clamps the row count reported to clients and used
	// for viewport bounds, independent of the data file's actual row
	// count. 0 means unbounded.
	MaxRowsCeiling int64 `yaml:"max_rows_ceiling"`

	Server ServerConfig `yaml:"server"`

	Viewport ViewportConfig `yaml:"viewport"`

	LogLevel string `yaml:"log_level"`

	RebuildPollInterval time.Duration `yaml:"rebuild_poll_interval"`
}

// ServerConfig configures the WebSocket/HTTP listener.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// HealthPort, when non-zero, serves /healthz on its own listener
	// (mirroring MetricsAddr's separate listener) in addition to the
	// main mux. 0 means /healthz is only reachable on ListenAddr.
	HealthPort int `yaml:"health_port"`
}

// ViewportConfig holds defaults the dispatcher falls back to when a
// client omits them from a viewport request.
type ViewportConfig struct {
	DefaultRowHeight   int `yaml:"default_row_height"`
	DefaultColumnWidth int `yaml:"default_column_width"`
	HorizontalBuffer   int `yaml:"horizontal_buffer"`
	VerticalBuffer     int `yaml:"vertical_buffer"`
}

// Default returns the baseline configuration used when no file is
// supplied, mirroring spec.md's worked examples (granularity 2 in
// seed data, but a production-sized default of 10000 here).
func Default() *Config {
	return &Config{
		IndexGranularity: 10000,
		ReadBufferSize:   32 * 1024,
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MetricsAddr:     ":9090",
			ShutdownTimeout: 10 * time.Second,
		},
		Viewport: ViewportConfig{
			DefaultRowHeight:   24,
			DefaultColumnWidth: 100,
			HorizontalBuffer:   2,
			VerticalBuffer:     5,
		},
		LogLevel:            "info",
		RebuildPollInterval: 30 * time.Second,
	}
}

// Load reads and parses the YAML file at path over the defaults, then
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the rest of gridview
// cannot safely run with.
func (c *Config) Validate() error {
	v := validation.NewConfigValidator("Config").
		Required("DataFile", c.DataFile).
		PositiveUint64("IndexGranularity", c.IndexGranularity).
		Positive("ReadBufferSize", c.ReadBufferSize).
		Required("Server.ListenAddr", c.Server.ListenAddr).
		Positive("Viewport.DefaultRowHeight", c.Viewport.DefaultRowHeight).
		Positive("Viewport.DefaultColumnWidth", c.Viewport.DefaultColumnWidth).
		MinInt("MaxRowsCeiling", int(c.MaxRowsCeiling), 0).
		MinInt("Server.HealthPort", c.Server.HealthPort, 0).
		OneOf("LogLevel", c.LogLevel, "debug", "info", "warn", "error")

	return v.Validate()
}
