// Package config loads service configuration from a YAML file with
// environment variable fallbacks for secrets.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables. The API key is never read from the config file so
// it does not end up committed alongside it.
const (
	EnvAPIKey = "OPENAI_API_KEY"
	EnvAddr   = "VIDBRIEF_ADDR"
)

// ErrAPIKeyMissing indicates OPENAI_API_KEY is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// Config holds the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Paths   PathsConfig   `yaml:"paths"`
	Models  ModelsConfig  `yaml:"models"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	Logging LoggingConfig `yaml:"logging"`

	// APIKey comes from the environment, never from the file.
	APIKey string `yaml:"-"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	CORSOrigins string `yaml:"cors_origins"`
}

type PathsConfig struct {
	Uploads string `yaml:"uploads"`
	Temp    string `yaml:"temp"`
}

type ModelsConfig struct {
	Transcription string `yaml:"transcription"`
	Generation    string `yaml:"generation"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from path, applies defaults and environment
// fallbacks, and validates the result. A missing file is not an error:
// defaults plus environment variables form a complete configuration.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the --config flag
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.CORSOrigins == "" {
		c.Server.CORSOrigins = "http://localhost:3000"
	}
	if c.Paths.Uploads == "" {
		c.Paths.Uploads = "uploads"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = os.TempDir()
	}
	if c.Models.Transcription == "" {
		c.Models.Transcription = "whisper-1"
	}
	if c.Models.Generation == "" {
		c.Models.Generation = "gpt-4o-mini"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) applyEnv() {
	c.APIKey = os.Getenv(EnvAPIKey)
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Server.Addr = addr
	}
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return ErrAPIKeyMissing
	}
	return nil
}
