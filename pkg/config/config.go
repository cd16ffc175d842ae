// Package config loads the eolscout.yaml service configuration. Values
// merge over built-in defaults, and {{.VAR}} references in the file are
// expanded from the environment before parsing. Database settings are
// deliberately not here; they stay environment-only (see pkg/database).
package config

import (
	"fmt"
	"time"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Browser   BrowserConfig   `yaml:"browser"`
	LLM       LLMConfig       `yaml:"llm"`
	Inventory InventoryConfig `yaml:"inventory"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr renders the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CacheConfig tunes the two-tier cache and the warming sweep.
type CacheConfig struct {
	// MemoryCapacity bounds the in-process tier.
	MemoryCapacity int `yaml:"memory_capacity"`
	// WarmSchedule is a cron expression; empty disables scheduled warming.
	WarmSchedule string `yaml:"warm_schedule"`
	// WarmOnStart triggers one warming sweep at service startup.
	WarmOnStart bool `yaml:"warm_on_start"`
	// WarmConcurrency bounds parallel bulk fetches during a sweep.
	WarmConcurrency int64 `yaml:"warm_concurrency"`
}

// BrowserConfig controls the headless-browser fallback agent. Empty
// UserAgent and SearchURL fall back to the browser package defaults.
type BrowserConfig struct {
	Headless  *bool  `yaml:"headless,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`
	SearchURL string `yaml:"search_url,omitempty"`
}

// IsHeadless reports the effective headless setting (default true).
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

// LLMConfig enables the optional second-pass date extraction. APIKey is
// normally injected via {{.LLM_API_KEY}} in the YAML file.
type LLMConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint,omitempty"`
	Deployment string `yaml:"deployment,omitempty"`
	APIVersion string `yaml:"api_version,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// InventoryConfig tunes the bulk inventory check endpoint.
type InventoryConfig struct {
	Concurrency int64 `yaml:"concurrency"`
}

// ScrapeConfig tunes the shared HTTP fetcher used by vendor agents.
type ScrapeConfig struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

// TimeoutDuration parses the scrape timeout. Validation guarantees the
// string parses, so errors only occur on hand-built configs.
func (s ScrapeConfig) TimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(s.Timeout)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Cache.WarmConcurrency < 1 {
		return fmt.Errorf("cache.warm_concurrency must be positive, got %d", c.Cache.WarmConcurrency)
	}
	if c.Inventory.Concurrency < 1 {
		return fmt.Errorf("inventory.concurrency must be positive, got %d", c.Inventory.Concurrency)
	}
	if _, err := time.ParseDuration(c.Scrape.Timeout); err != nil {
		return fmt.Errorf("scrape.timeout: %w", err)
	}
	if c.LLM.Enabled && c.LLM.Endpoint == "" {
		return fmt.Errorf("llm.enabled requires llm.endpoint")
	}
	return nil
}
