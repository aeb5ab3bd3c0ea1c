// Package config loads harvester process configuration by layering
// defaults, an optional YAML file, and environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains process configuration.
type Config struct {
	// ClientID and ClientSecret are the upstream OAuth2 credentials.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// AuthURL and APIURL override the upstream endpoints (tests, proxies).
	AuthURL string `koanf:"auth_url"`
	APIURL  string `koanf:"api_url"`

	// DatabaseDSN is the MySQL data source name.
	DatabaseDSN string `koanf:"database_dsn"`

	// RedisAddr enables shared quota state and encounter caching when set.
	RedisAddr string `koanf:"redis_addr"`

	// Workers sets the harvest worker pool size.
	Workers int `koanf:"workers"`

	// RequestTimeout bounds each upstream call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// CatalogPath is the raid catalogue YAML file.
	CatalogPath string `koanf:"catalog_path"`

	// HeroSpecPath is the talent-id to hero-spec JSON mapping file.
	HeroSpecPath string `koanf:"hero_spec_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogPretty switches from JSON to console log output.
	LogPretty bool `koanf:"log_pretty"`
}

// defaults returns the base configuration before file and env layering.
func defaults() Config {
	return Config{
		Workers:        8,
		RequestTimeout: 30 * time.Second,
		CatalogPath:    "raid_catalog.yaml",
		HeroSpecPath:   "hero_talents_map.json",
		LogLevel:       "info",
	}
}

// Load builds a Config by layering, low to high precedence:
//  1. defaults
//  2. YAML file named by WCL_CONFIG, if set
//  3. environment variables prefixed WCL_ (e.g. WCL_CLIENT_ID, WCL_WORKERS)
func Load() (*Config, error) {
	cfg := defaults()

	k := koanf.New(".")

	if path := os.Getenv("WCL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	envProvider := env.Provider("WCL_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "wcl_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client_id and client_secret must be set (WCL_CLIENT_ID / WCL_CLIENT_SECRET)")
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("workers must be positive")
	}

	return &cfg, nil
}
