// Package config provides application configuration for synkron.
// It supports a YAML configuration file, environment variables, and sensible defaults.
// It does not hold sync profiles; those live in the settings store.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/synkron/internal/remote"
	"github.com/klauern/synkron/internal/settings"
	"github.com/klauern/synkron/internal/util"
)

// Config represents the complete synkron application configuration.
type Config struct {
	// Store selects where the settings store lives
	Store StoreConfig `yaml:"store"`

	// Logging configures the log handler
	Logging LoggingConfig `yaml:"logging"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`

	// Remote configures the S3 mirror of the store file
	Remote remote.Config `yaml:"remote"`
}

// StoreConfig holds settings store selection.
type StoreConfig struct {
	// Path is the path hint used to look for a portable store.
	// Empty means the directory of the running binary.
	Path string `yaml:"path,omitempty"`
	// Format is the store format (ini, yaml, toml, sqlite)
	Format string `yaml:"format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum level (debug, info, warn, error)
	Level string `yaml:"level"`
	// JSON switches to the JSON handler
	JSON bool `yaml:"json"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Format is the default output format (table, json, yaml)
	Format string `yaml:"format"`
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Format: string(settings.FormatINI),
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Output: OutputConfig{
			Format: "table",
			Color:  "auto",
		},
		Remote: remote.Config{
			UseSSL: true,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.ConfigPath(), configFileName)
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	cfg, err := LoadFromPath(FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			// No config file, use defaults with environment overrides
			cfg = Default()
			cfg.applyEnvironment()
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse YAML over defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// The remote section may carry credentials.
	return os.WriteFile(path, data, 0o600)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern SYNKRON_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Store settings
	if v := os.Getenv("SYNKRON_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("SYNKRON_STORE_FORMAT"); v != "" {
		c.Store.Format = v
	}

	// Logging settings
	if v := os.Getenv("SYNKRON_LOGGING_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SYNKRON_LOGGING_JSON"); v != "" {
		c.Logging.JSON = parseBool(v)
	}

	// Output settings
	if v := os.Getenv("SYNKRON_OUTPUT_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("SYNKRON_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}

	// Remote settings
	if v := os.Getenv("SYNKRON_REMOTE_ENDPOINT"); v != "" {
		c.Remote.Endpoint = v
	}
	if v := os.Getenv("SYNKRON_REMOTE_BUCKET"); v != "" {
		c.Remote.Bucket = v
	}
	if v := os.Getenv("SYNKRON_REMOTE_OBJECT"); v != "" {
		c.Remote.Object = v
	}
	if v := os.Getenv("SYNKRON_REMOTE_ACCESS_KEY"); v != "" {
		c.Remote.AccessKey = v
	}
	if v := os.Getenv("SYNKRON_REMOTE_SECRET_KEY"); v != "" {
		c.Remote.SecretKey = v
	}
	if v := os.Getenv("SYNKRON_REMOTE_USE_SSL"); v != "" {
		c.Remote.UseSSL = parseBool(v)
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// StoreFormat returns the configured store format, validating it.
func (c *Config) StoreFormat() (settings.Format, error) {
	return settings.ParseFormat(c.Store.Format)
}

// StorePath returns the store path hint, expanded. When none is configured
// the directory of the running executable is used.
func (c *Config) StorePath(baseDir string) string {
	if c.Store.Path != "" {
		return util.ExpandPath(c.Store.Path, baseDir)
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return exe
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
