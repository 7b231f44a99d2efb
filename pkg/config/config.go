// Package config loads engine configuration from config.yaml with
// environment variable overrides. Environment variables always win over
// YAML values.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the ontology engine.
type Config struct {
	// Server configuration for the MCP tool surface.
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8411"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// SchemaPath optionally points at a YAML schema document registered at
	// startup.
	SchemaPath string `yaml:"schema_path" env:"SCHEMA_PATH" env-default:""`

	// Cache configures the three tiers. A capacity of zero disables the
	// whole cache.
	Cache CacheConfig `yaml:"cache"`

	// DerivedTTLSeconds bounds how long derived property values are
	// memoized on an instance.
	DerivedTTLSeconds int `yaml:"derived_ttl_seconds" env:"DERIVED_TTL_SECONDS" env-default:"30"`
}

// CacheConfig sizes the cache tiers. L1 is hottest and smallest.
type CacheConfig struct {
	L1Capacity   int `yaml:"l1_capacity" env:"CACHE_L1_CAPACITY" env-default:"128"`
	L1TTLSeconds int `yaml:"l1_ttl_seconds" env:"CACHE_L1_TTL_SECONDS" env-default:"60"`
	L2Capacity   int `yaml:"l2_capacity" env:"CACHE_L2_CAPACITY" env-default:"1024"`
	L2TTLSeconds int `yaml:"l2_ttl_seconds" env:"CACHE_L2_TTL_SECONDS" env-default:"300"`
	L3Capacity   int `yaml:"l3_capacity" env:"CACHE_L3_CAPACITY" env-default:"8192"`
	L3TTLSeconds int `yaml:"l3_ttl_seconds" env:"CACHE_L3_TTL_SECONDS" env-default:"1800"`
}

// Enabled reports whether any tier has capacity.
func (c *CacheConfig) Enabled() bool {
	return c.L1Capacity > 0 || c.L2Capacity > 0 || c.L3Capacity > 0
}

// L1TTL returns the L1 time-to-live as a duration.
func (c *CacheConfig) L1TTL() time.Duration { return time.Duration(c.L1TTLSeconds) * time.Second }

// L2TTL returns the L2 time-to-live as a duration.
func (c *CacheConfig) L2TTL() time.Duration { return time.Duration(c.L2TTLSeconds) * time.Second }

// L3TTL returns the L3 time-to-live as a duration.
func (c *CacheConfig) L3TTL() time.Duration { return time.Duration(c.L3TTLSeconds) * time.Second }

// DerivedTTL returns the derived-property memo lifetime as a duration.
func (c *Config) DerivedTTL() time.Duration {
	return time.Duration(c.DerivedTTLSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. A missing config.yaml falls back to environment and defaults.
// The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for _, v := range []int{c.Cache.L1Capacity, c.Cache.L2Capacity, c.Cache.L3Capacity} {
		if v < 0 {
			return fmt.Errorf("cache capacities must not be negative")
		}
	}
	if c.DerivedTTLSeconds < 0 {
		return fmt.Errorf("derived_ttl_seconds must not be negative")
	}
	return nil
}
