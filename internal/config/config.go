// Package config manages the askcmd configuration file at ~/.askcmd/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider   = "openai"
	DefaultModel      = "gpt-5-nano"
	DefaultOpenAIHost = "https://api.openai.com/v1"
	DefaultOllamaHost = "http://localhost:11434"
	DefaultAFMCommand = "afm-bridge"
	DefaultTimeout    = 60 * time.Second
)

var ErrNotFound = errors.New("config file not found")

// validProviders lists the provider names accepted in config.
var validProviders = []string{"openai", "openai-chat", "ollama", "afm"}

type Config struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	OpenAI         OpenAI        `yaml:"openai"`
	Ollama         Ollama        `yaml:"ollama"`
	AFM            AFM           `yaml:"afm"`
}

type OpenAI struct {
	Host string `yaml:"host"`
}

type Ollama struct {
	Host string `yaml:"host"`
}

type AFM struct {
	Command string `yaml:"command"`
}

// Dir returns the config directory path (~/.askcmd).
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".askcmd")
}

// Path returns the config file path (~/.askcmd/config.yaml).
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads and parses the config file. Returns ErrNotFound if it doesn't exist.
func Load() (*Config, error) {
	return loadFrom(Path())
}

// LoadOrDefault behaves like Load but falls back to Default when no file exists.
// A malformed file is still an error.
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	return cfg, err
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(Path(), data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks provider name and timeout.
func (c *Config) Validate() error {
	if !IsValidProvider(c.Provider) {
		return fmt.Errorf("invalid provider %q (valid: %s)", c.Provider, strings.Join(validProviders, ", "))
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative")
	}
	return nil
}

// Timeout returns the per-request timeout, falling back to DefaultTimeout.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultTimeout
	}
	return c.RequestTimeout
}

// IsValidProvider reports whether name is a supported provider.
func IsValidProvider(name string) bool {
	for _, p := range validProviders {
		if p == name {
			return true
		}
	}
	return false
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Provider:       DefaultProvider,
		Model:          DefaultModel,
		RequestTimeout: DefaultTimeout,
		OpenAI:         OpenAI{Host: DefaultOpenAIHost},
		Ollama:         Ollama{Host: DefaultOllamaHost},
		AFM:            AFM{Command: DefaultAFMCommand},
	}
}
