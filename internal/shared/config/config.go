package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/reshetovitsme/telegram-channel-archiver/internal/shared/errors"
)

type Config struct {
	APIID       int    `koanf:"api_id"`
	APIHash     string `koanf:"api_hash"`
	Phone       string `koanf:"phone"`
	SessionFile string `koanf:"session_file"`

	OutputRoot string `koanf:"output_root"`
	PageSize   int    `koanf:"page_size"`

	MaxRetries            int `koanf:"max_retries"`
	BackoffBaseSeconds    int `koanf:"backoff_base_seconds"`
	BackoffCeilingSeconds int `koanf:"backoff_ceiling_seconds"`
	PageTimeoutSeconds    int `koanf:"page_timeout_seconds"`
	MediaTimeoutSeconds   int `koanf:"media_timeout_seconds"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	// Use lo.Find to find the first existing config file
	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	if !k.Exists("session_file") {
		k.Set("session_file", "archiver.session")
	}
	if !k.Exists("output_root") {
		k.Set("output_root", "downloads")
	}
	if !k.Exists("page_size") {
		k.Set("page_size", 100)
	}
	if !k.Exists("max_retries") {
		k.Set("max_retries", 5)
	}
	if !k.Exists("backoff_base_seconds") {
		k.Set("backoff_base_seconds", 1)
	}
	if !k.Exists("backoff_ceiling_seconds") {
		k.Set("backoff_ceiling_seconds", 60)
	}
	if !k.Exists("page_timeout_seconds") {
		k.Set("page_timeout_seconds", 30)
	}
	if !k.Exists("media_timeout_seconds") {
		k.Set("media_timeout_seconds", 120)
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	// The provider caps history pages at 100 entries.
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		cfg.PageSize = 100
	}

	// Validate required fields
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, errors.ErrMissingAPICredentials
	}

	return &cfg, nil
}

// BackoffBase returns the first exponential backoff delay.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseSeconds) * time.Second
}

// BackoffCeiling returns the maximum exponential backoff delay.
func (c *Config) BackoffCeiling() time.Duration {
	return time.Duration(c.BackoffCeilingSeconds) * time.Second
}

// PageTimeout bounds one history page fetch.
func (c *Config) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSeconds) * time.Second
}

// MediaTimeout bounds one media payload fetch.
func (c *Config) MediaTimeout() time.Duration {
	return time.Duration(c.MediaTimeoutSeconds) * time.Second
}
