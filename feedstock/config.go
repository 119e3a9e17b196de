package feedstock

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no config path is given.
const DefaultConfigFile = "biochar.yaml"

// Default dataset locations, relative to the working directory.
const (
	DefaultPrimaryPath  = "data/pyrolysis/pyrolysis_data.csv"
	DefaultFallbackPath = "data/pyrolysis/pyrolysis_data_fallback.csv"
)

// Neutral values substituted for missing moisture and temperature readings.
const (
	DefaultMoisture    = 50.0
	DefaultTemperature = 20.0
)

// DatasetsConfig points at the two reference tiers.
type DatasetsConfig struct {
	Primary  Source `yaml:"primary"`
	Fallback Source `yaml:"fallback"`
}

// DefaultsConfig holds the fill values for optional soil readings. Nil means unset, so an
// explicit 0 is kept.
type DefaultsConfig struct {
	Moisture    *float64 `yaml:"moisture"`
	Temperature *float64 `yaml:"temperature"`
}

// LoggingConfig selects the zap preset and level.
type LoggingConfig struct {
	Mode  string `yaml:"mode"`  // development, production
	Level string `yaml:"level"` // debug, info, warn, error
}

// Config aggregates runtime settings persisted to biochar.yaml.
type Config struct {
	Datasets          DatasetsConfig `yaml:"datasets"`
	SimilarGroupsFile string         `yaml:"similar_groups_file"`
	Columns           SampleColumns  `yaml:"columns"`
	Defaults          DefaultsConfig `yaml:"defaults"`
	Workers           int            `yaml:"workers"`
	Logging           LoggingConfig  `yaml:"logging"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Datasets.Primary.Path == "" {
		c.Datasets.Primary.Path = DefaultPrimaryPath
	}
	if c.Datasets.Fallback.Path == "" {
		c.Datasets.Fallback.Path = DefaultFallbackPath
	}
	if c.Defaults.Moisture == nil {
		c.Defaults.Moisture = Float(DefaultMoisture)
	}
	if c.Defaults.Temperature == nil {
		c.Defaults.Temperature = Float(DefaultTemperature)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Logging.Mode == "" {
		c.Logging.Mode = "development"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// applyEnv lets the environment override dataset locations and the log level.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("BIOCHAR_PRIMARY_DATASET")); v != "" {
		c.Datasets.Primary.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("BIOCHAR_FALLBACK_DATASET")); v != "" {
		c.Datasets.Fallback.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("BIOCHAR_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

// LoadConfig loads configuration from the given path or the default biochar.yaml. A missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

// EncodeConfig writes cfg as YAML with every default filled in.
func EncodeConfig(w io.Writer, cfg Config) error {
	cfg.ApplyDefaults()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// SaveConfig persists configuration to disk. The file is written next to its destination
// and renamed into place, so readers never see a partial file.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = DefaultConfigFile
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeConfig(tmp, cfg); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
