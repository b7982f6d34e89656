// Package app assembles the bot: configuration, stores, services and
// handler wiring.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/skybot/core/config"
)

// WeatherConfig configures the weather provider client.
type WeatherConfig struct {
	APIKey          string `yaml:"api_key" envconfig:"WEATHER_API_KEY"`
	BaseURL         string `yaml:"base_url" envconfig:"WEATHER_BASE_URL"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// CatFactsConfig configures the cat facts client.
type CatFactsConfig struct {
	BaseURL         string `yaml:"base_url" envconfig:"CATFACTS_BASE_URL"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// StorageConfig locates the user data file.
type StorageConfig struct {
	Path string `yaml:"path" envconfig:"STORAGE_PATH"`
}

// Config is the full application configuration: the core sections inline
// plus the domain sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Weather  WeatherConfig  `yaml:"weather"`
	CatFacts CatFactsConfig `yaml:"cat_facts"`
	Storage  StorageConfig  `yaml:"storage"`
}

// CoreConfig exposes the embedded core sections to the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// WeatherCacheTTL returns the weather cache TTL as a duration.
func (c *Config) WeatherCacheTTL() time.Duration {
	return time.Duration(c.Weather.CacheTTLSeconds) * time.Second
}

// WeatherTimeout returns the weather request timeout as a duration.
func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutSeconds) * time.Second
}

// CatFactsCacheTTL returns the cat facts cache TTL as a duration.
func (c *Config) CatFactsCacheTTL() time.Duration {
	return time.Duration(c.CatFacts.CacheTTLSeconds) * time.Second
}

// CatFactsTimeout returns the cat facts request timeout as a duration.
func (c *Config) CatFactsTimeout() time.Duration {
	return time.Duration(c.CatFacts.TimeoutSeconds) * time.Second
}

// LoadConfig reads the YAML file at path, applies environment overrides
// and validates the result. A missing file is not fatal as long as the
// environment provides what is required.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	applyDefaults(cfg)

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	// A missing weather API key disables the weather feature; the rest of
	// the bot keeps running.
	return cfg, nil
}

// WeatherEnabled reports whether the weather feature can be served.
func (c *Config) WeatherEnabled() bool {
	return c.Weather.APIKey != ""
}

func applyDefaults(cfg *Config) {
	if cfg.Weather.CacheTTLSeconds <= 0 {
		cfg.Weather.CacheTTLSeconds = 300
	}
	if cfg.Weather.TimeoutSeconds <= 0 {
		cfg.Weather.TimeoutSeconds = 10
	}
	if cfg.CatFacts.CacheTTLSeconds <= 0 {
		cfg.CatFacts.CacheTTLSeconds = 60
	}
	if cfg.CatFacts.TimeoutSeconds <= 0 {
		cfg.CatFacts.TimeoutSeconds = 5
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "storage/user_data.json"
	}
	if cfg.RateLimit.IntervalMS == 0 {
		cfg.RateLimit.IntervalMS = 1000
	}
}
