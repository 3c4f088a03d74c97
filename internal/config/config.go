// Package config loads partyloader settings from defaults, an optional YAML
// file and PARTYLOADER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/poku-e/partyloader/internal/source"
)

// Config holds every setting. Command-line flags are applied on top by the
// CLI after Load.
type Config struct {
	// Source overrides the derived party data location.
	Source    string `yaml:"source,omitempty"    env:"PARTYLOADER_SOURCE"`
	Namespace string `yaml:"namespace,omitempty" env:"PARTYLOADER_NAMESPACE"`
	DataFile  string `yaml:"data_file,omitempty" env:"PARTYLOADER_DATA_FILE"`

	// Root is the site directory served by `serve`.
	Root string `yaml:"root,omitempty" env:"PARTYLOADER_ROOT"`
	Addr string `yaml:"addr,omitempty" env:"PARTYLOADER_ADDR"`

	Quiet bool `yaml:"quiet,omitempty" env:"PARTYLOADER_QUIET"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Namespace: source.DefaultNamespace,
		DataFile:  source.DefaultFile,
		Root:      ".",
		Addr:      ":8080",
	}
}

// Load starts from Default, applies the YAML file at path when path is
// non-empty, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings that cannot locate a data file.
func (c *Config) Validate() error {
	if c.Source == "" && c.DataFile == "" {
		return errors.New("data_file is required when no source override is set")
	}
	if c.Namespace == "" {
		return errors.New("namespace must not be empty")
	}
	return nil
}

// SourceOptions converts the settings used to locate party data.
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		Override:  c.Source,
		Namespace: c.Namespace,
		File:      c.DataFile,
	}
}
