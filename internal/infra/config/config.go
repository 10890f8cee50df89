// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/swipebox/internal/infra/cache"
	"github.com/osa030/swipebox/internal/infra/logger"
	"github.com/osa030/swipebox/internal/infra/store"
)

// Config represents the application configuration.
type Config struct {
	Store   store.Config  `yaml:"store"`
	Feed    FeedConfig    `yaml:"feed"`
	Search  SearchConfig  `yaml:"search"`
	Cache   cache.Config  `yaml:"cache"`
	Logging logger.Config `yaml:"logging"`
}

// FeedConfig represents discovery feed tuning.
type FeedConfig struct {
	QuotaPerTerm      int `yaml:"quota_per_term" default:"2" validate:"gte=1,lte=10"`
	RefillThreshold   int `yaml:"refill_threshold" default:"5" validate:"gte=1"`
	DiscoverThreshold int `yaml:"discover_threshold" default:"10" validate:"gte=0"`
	ResultLimit       int `yaml:"result_limit" default:"200" validate:"gte=1,lte=200"`
	DebounceMs        int `yaml:"debounce_ms" default:"100" validate:"gte=0,lte=5000"`
}

// SearchConfig represents search provider selection.
type SearchConfig struct {
	Type     string         `yaml:"type" default:"itunes" validate:"oneof=itunes spotify"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults so the binary runs without any config at all. Environment
// variables take precedence for credentials.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SWIPEBOX_DB_USER"); v != "" {
		c.Store.User = v
	}
	if v := os.Getenv("SWIPEBOX_DB_PASSWORD"); v != "" {
		c.Store.Password = v
	}
	if v := os.Getenv("SWIPEBOX_DB_NAME"); v != "" {
		c.Store.Name = v
	}
	if v := os.Getenv("SWIPEBOX_REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}

	if c.Search.Type == "spotify" {
		if c.Search.Settings == nil {
			c.Search.Settings = map[string]any{}
		}
		for env, key := range map[string]string{
			"SPOTIFY_CLIENT_ID":     "client_id",
			"SPOTIFY_CLIENT_SECRET": "client_secret",
			"SPOTIFY_REFRESH_TOKEN": "refresh_token",
		} {
			if v := os.Getenv(env); v != "" {
				c.Search.Settings[key] = v
			}
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
