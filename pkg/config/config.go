// Package config loads the optional YAML run configuration file.
//
// Every field mirrors a CLI flag; explicit flags win over file values.
package config

import (
	"bytes"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evalcheck/evalcheck/pkg/types"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is one run's file-backed configuration.
type Config struct {
	Exe       string   `yaml:"exe"`
	Wasm      string   `yaml:"wasm"`
	Dir       string   `yaml:"dir"`
	Timeout   Duration `yaml:"timeout"`
	Parallel  int      `yaml:"parallel"`
	Canonical bool     `yaml:"canonical"`
	Tests     []string `yaml:"tests"`
}

// Load reads and validates a YAML configuration file. Unknown keys are
// rejected: a typo in a config file should fail loudly, not silently run
// with defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrConfig, "cannot read config").WithPath(path).WithCause(err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, types.NewError(types.ErrConfig, "invalid config").WithPath(path).WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Exe != "" && c.Wasm != "" {
		return types.NewError(types.ErrConfig, "exe and wasm are mutually exclusive")
	}
	if c.Parallel < 0 {
		return types.NewError(types.ErrConfig, "parallel must be >= 0")
	}
	return nil
}
