// Package config loads the optional shadowtree.yaml or shadowtree.toml file
// and resolves defaults for the commit policy, logging, metrics and the
// debug inspector.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/shadowtree/pkg/commit"
)

// File names searched by LoadOptional, in order.
var FileNames = []string{"shadowtree.yaml", "shadowtree.yml", "shadowtree.toml"}

// Defaults used by Resolve.
const (
	DefaultLogLevel  = "info"
	DefaultNamespace = "shadowtree"
	DefaultDebugPort = 9393
)

// Config represents the optional configuration file.
type Config struct {
	Version string        `yaml:"version,omitempty" toml:"version"`
	Commit  CommitConfig  `yaml:"commit" toml:"commit"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Debug   DebugConfig   `yaml:"debug" toml:"debug"`
}

// CommitConfig contains retry policy settings. Durations use
// time.ParseDuration syntax.
type CommitConfig struct {
	MaxAttempts int    `yaml:"max_attempts,omitempty" toml:"max_attempts"`
	Backoff     string `yaml:"backoff,omitempty" toml:"backoff"`
	MaxBackoff  string `yaml:"max_backoff,omitempty" toml:"max_backoff"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty" toml:"level"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Namespace string `yaml:"namespace,omitempty" toml:"namespace"`
}

// DebugConfig contains debug inspector settings.
type DebugConfig struct {
	Port int `yaml:"port,omitempty" toml:"port"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Path      string
	Version   string
	Policy    commit.Policy
	LogLevel  string
	Namespace string
	DebugPort int
}

// Load reads the file at path. The format is picked by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &cfg, nil
}

// LoadOptional reads the first config file found in dir. A directory without
// one yields an empty Config and an empty path.
func LoadOptional(dir string) (*Config, string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("failed to stat %s: %w", name, err)
		}
		cfg, err := Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	return &Config{}, "", nil
}

// Resolve loads the config in dir (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, path, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	r, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	r.Path = path
	return r, nil
}

// Resolve validates cfg and fills in defaults.
func (c *Config) Resolve() (*Resolved, error) {
	version := strings.TrimSpace(c.Version)
	if version == "" {
		version = "v1"
	}
	if err := validateVersion(version); err != nil {
		return nil, err
	}

	if c.Commit.MaxAttempts < 0 {
		return nil, fmt.Errorf("commit.max_attempts must not be negative, got %d", c.Commit.MaxAttempts)
	}
	backoff, err := parseDuration("commit.backoff", c.Commit.Backoff)
	if err != nil {
		return nil, err
	}
	maxBackoff, err := parseDuration("commit.max_backoff", c.Commit.MaxBackoff)
	if err != nil {
		return nil, err
	}
	if maxBackoff > 0 && backoff > maxBackoff {
		return nil, fmt.Errorf("commit.backoff %s exceeds commit.max_backoff %s", backoff, maxBackoff)
	}
	policy := commit.DefaultPolicy()
	if c.Commit.MaxAttempts > 0 {
		policy.MaxAttempts = c.Commit.MaxAttempts
	}
	policy.Backoff = backoff
	policy.MaxBackoff = maxBackoff

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if level == "" {
		level = DefaultLogLevel
	}

	namespace := strings.TrimSpace(c.Metrics.Namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}

	port := c.Debug.Port
	if port == 0 {
		port = DefaultDebugPort
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("debug.port out of range: %d", port)
	}

	return &Resolved{
		Version:   version,
		Policy:    policy,
		LogLevel:  level,
		Namespace: namespace,
		DebugPort: port,
	}, nil
}

// validateVersion accepts any semver with major version 1.
func validateVersion(v string) error {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid config version %q", v)
	}
	if major := semver.Major(v); major != "v1" {
		return fmt.Errorf("unsupported config version %s (major %s, want v1)", v, major)
	}
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", field, d)
	}
	return d, nil
}
