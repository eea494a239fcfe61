// Package config provides configuration loading and structs for docread.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Converter ConverterConfig `yaml:"converter"`
	Text      TextConfig      `yaml:"text"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ConverterConfig describes the external legacy .doc converter.
type ConverterConfig struct {
	Path    string        `yaml:"path"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// TextConfig holds plain-text detection and reading settings.
type TextConfig struct {
	SampleBytes int     `yaml:"sample_bytes"`
	ScaleFactor float64 `yaml:"scale_factor"`
	// StreamThresholdMB > 0 reads files above this size line by line instead of
	// using the scaled limit.
	StreamThresholdMB float64 `yaml:"stream_threshold_mb"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	OutputDir   string   `yaml:"output_dir"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Converter.Path = expandPath(cfg.Converter.Path, configDir)
	cfg.Watch.OutputDir = expandPath(cfg.Watch.OutputDir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects values that cannot be made sensible by defaults.
func Validate(cfg *Config) error {
	if cfg.Text.SampleBytes < 0 {
		return fmt.Errorf("invalid config: text.sample_bytes must be positive, got %d", cfg.Text.SampleBytes)
	}
	if cfg.Text.ScaleFactor < 0 {
		return fmt.Errorf("invalid config: text.scale_factor must not be negative, got %g", cfg.Text.ScaleFactor)
	}
	if cfg.Text.StreamThresholdMB < 0 {
		return fmt.Errorf("invalid config: text.stream_threshold_mb must not be negative, got %g", cfg.Text.StreamThresholdMB)
	}
	if cfg.Converter.Timeout < 0 {
		return fmt.Errorf("invalid config: converter.timeout must not be negative, got %s", cfg.Converter.Timeout)
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
