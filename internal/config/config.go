// Package config loads html2pdf configuration files (YAML or TOML).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrUnsupportedExt  = errors.New("unsupported config extension")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrTooMany         = errors.New("too many entries")
)

// Limits on config content.
const (
	MaxFileSize        = 1 << 20
	MaxPathLength      = 4096
	MaxPrefixLength    = 64
	MaxStylesheets     = 32
	MaxOptions         = 256
	MaxDuration        = time.Hour
	configDirName      = "go-html2pdf"
	configFileBaseName = "html2pdf"
)

// Config holds the settings shared by the library defaults and the CLI.
type Config struct {
	Engine        EngineConfig   `yaml:"engine" toml:"engine"`
	MetaTagPrefix string         `yaml:"metaTagPrefix" toml:"metaTagPrefix"` // empty = "html2pdf-"
	Stylesheets   []string       `yaml:"stylesheets" toml:"stylesheets"`     // CSS files, relative to the config file
	Options       map[string]any `yaml:"options" toml:"options"`             // passthrough engine options
}

// EngineConfig describes the rendering engine and how it is supervised.
// Durations use Go syntax ("10s", "1m30s"); empty means the library default.
type EngineConfig struct {
	Path              string `yaml:"path" toml:"path"`
	EnsureTermination bool   `yaml:"ensureTermination" toml:"ensureTermination"`
	Timeout           string `yaml:"timeout" toml:"timeout"`
	SettleDelay       string `yaml:"settleDelay" toml:"settleDelay"`
	PollInterval      string `yaml:"pollInterval" toml:"pollInterval"`
	KillGrace         string `yaml:"killGrace" toml:"killGrace"`
}

// Durations is the parsed form of the EngineConfig duration fields.
// Zero means unset.
type Durations struct {
	Timeout      time.Duration
	SettleDelay  time.Duration
	PollInterval time.Duration
	KillGrace    time.Duration
}

// Durations parses the engine duration fields.
func (e *EngineConfig) Durations() (Durations, error) {
	var d Durations
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"engine.timeout", e.Timeout, &d.Timeout},
		{"engine.settleDelay", e.SettleDelay, &d.SettleDelay},
		{"engine.pollInterval", e.PollInterval, &d.PollInterval},
		{"engine.killGrace", e.KillGrace, &d.KillGrace},
	}
	for _, f := range fields {
		v, err := ParseDuration(f.name, f.raw)
		if err != nil {
			return Durations{}, err
		}
		*f.dst = v
	}
	return d, nil
}

// ParseDuration parses a non-negative duration no longer than MaxDuration.
// An empty string yields zero.
func ParseDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q", ErrInvalidDuration, field, raw)
	}
	if d < 0 || d > MaxDuration {
		return 0, fmt.Errorf("%w: %s: %s (must be between 0 and %s)", ErrInvalidDuration, field, d, MaxDuration)
	}
	return d, nil
}

// Validate checks lengths, counts and durations.
// Called by LoadConfig; available to callers that build a Config by hand.
func (c *Config) Validate() error {
	if err := validateFieldLength("engine.path", c.Engine.Path, MaxPathLength); err != nil {
		return err
	}
	if _, err := c.Engine.Durations(); err != nil {
		return err
	}
	if err := validateFieldLength("metaTagPrefix", c.MetaTagPrefix, MaxPrefixLength); err != nil {
		return err
	}

	if len(c.Stylesheets) > MaxStylesheets {
		return fmt.Errorf("%w: stylesheets (%d, max %d)", ErrTooMany, len(c.Stylesheets), MaxStylesheets)
	}
	for i, s := range c.Stylesheets {
		if err := validateFieldLength(fmt.Sprintf("stylesheets[%d]", i), s, MaxPathLength); err != nil {
			return err
		}
	}

	if len(c.Options) > MaxOptions {
		return fmt.Errorf("%w: options (%d, max %d)", ErrTooMany, len(c.Options), MaxOptions)
	}

	return nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns an empty configuration: every field falls back to the
// library defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path and the
// format follows its extension. Otherwise it's a config name searched in the
// current directory, then in the user config directory.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(configPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	cfg.resolveStylesheets(filepath.Dir(configPath))
	return cfg, nil
}

// Parse decodes and validates data. ext selects the format (".yaml", ".yml"
// or ".toml"). Unknown fields are rejected outside the options map.
func Parse(data []byte, ext string) (*Config, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigParse, len(data), MaxFileSize)
	}

	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExt, ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveStylesheets makes relative stylesheet paths relative to dir.
func (c *Config) resolveStylesheets(dir string) {
	for i, s := range c.Stylesheets {
		if s != "" && !filepath.IsAbs(s) {
			c.Stylesheets[i] = filepath.Join(dir, s)
		}
	}
}

// DefaultName is the config name looked up when none is given explicitly.
func DefaultName() string { return configFileBaseName }

// SearchPaths lists the files tried for a config name, in lookup order:
// name.yaml, name.yml, name.toml in the current directory, then the same in
// <UserConfigDir>/go-html2pdf/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml", ".toml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, configDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

