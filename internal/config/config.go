// Package config loads the engine's run configuration, generalizing the
// teacher's pkg/config (a single DefaultPort constant) into a YAML file
// read with gopkg.in/yaml.v3, covering the knobs the ambient stack and
// natives modules actually need at startup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultReplPort is the default value of Config.ReplPort. No component
// of this repository binds a port from it.
const DefaultReplPort = 3000

// LogConfig configures internal/obslog.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	BufferSize int    `yaml:"buffer_size"`
}

// SQLConfig holds SQL connection settings. It is loaded but not used to
// open a handle: scripts pass driver and DSN to db_open themselves.
type SQLConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// KVConfig holds Redis connection settings. It is loaded but not used to
// open a handle: scripts pass the address to kv_open themselves.
type KVConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DocstoreConfig holds MongoDB connection settings. It is loaded but not
// used to open a handle: scripts pass their arguments to doc_open themselves.
type DocstoreConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// TracingConfig configures internal/obstrace.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// MetricsConfig configures internal/obsmetrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// HotReload is loaded from the config file; cmd/asteria's fsnotify watch
// loop does not read Enabled.
type HotReload struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the engine's full run configuration. Every field has a
// usable zero value, so an absent config file is equivalent to Default().
type Config struct {
	ReplPort int `yaml:"repl_port"`
	// CollectorThreshold is the tracked-variable count at which an
	// automatic sweep is triggered; 0 disables automatic sweeps (internal/collector.New).
	CollectorThreshold int            `yaml:"collector_threshold"`
	Log                LogConfig      `yaml:"log"`
	SQL                SQLConfig      `yaml:"sql"`
	KV                 KVConfig       `yaml:"kv"`
	Docstore           DocstoreConfig `yaml:"docstore"`
	Tracing            TracingConfig  `yaml:"tracing"`
	Metrics            MetricsConfig  `yaml:"metrics"`
	HotReload          HotReload      `yaml:"hot_reload"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		ReplPort: DefaultReplPort,
		Log:      LogConfig{Level: "info", Format: "text", BufferSize: 256},
		Tracing:  TracingConfig{ServiceName: "asteria"},
		Metrics:  MetricsConfig{Addr: ":9090"},
	}
}

// Load reads and parses a YAML config file at path, layering it over
// Default() so a file only needs to set the fields it overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
