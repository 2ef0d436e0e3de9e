package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API          APIConfig          `mapstructure:"api"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Browse       BrowseConfig       `mapstructure:"browse"`
	Search       SearchConfig       `mapstructure:"search"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// APIConfig holds the upstream catalog API settings
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	// BackoffBase doubles after every failed attempt
	BackoffBase   time.Duration `mapstructure:"backoff_base"`
	BackoffJitter time.Duration `mapstructure:"backoff_jitter"`
	// RequestsPerSecond paces requests; 0 disables pacing
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	UserAgent         string  `mapstructure:"user_agent"`
}

// CacheConfig controls the response cache
type CacheConfig struct {
	// Backend is "badger" (persisted under Path) or "memory"
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	TTL           time.Duration `mapstructure:"ttl"`
	MemoryEntries int           `mapstructure:"memory_entries"`
	// MaxBytes caps the memory backend; 0 means unlimited
	MaxBytes int `mapstructure:"max_bytes"`
}

// ConnectivityConfig controls how offline state is detected
type ConnectivityConfig struct {
	// ProbeURL is polled every ProbeInterval; empty disables probing
	ProbeURL      string        `mapstructure:"probe_url"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	ForceOffline  bool          `mapstructure:"force_offline"`
}

// BrowseConfig contains list loading settings
type BrowseConfig struct {
	BatchSize           int           `mapstructure:"batch_size"`
	DetailBatchSize     int           `mapstructure:"detail_batch_size"`
	Debounce            time.Duration `mapstructure:"debounce"`
	SuggestionLimit     int           `mapstructure:"suggestion_limit"`
	SuggestionMinLength int           `mapstructure:"suggestion_min_length"`
	NamesLimit          int           `mapstructure:"names_limit"`
}

// SearchConfig contains search settings
type SearchConfig struct {
	// Aliases are merged over the built-in alias table
	Aliases map[string]string `mapstructure:"aliases"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
