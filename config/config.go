package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. DEXBROWSE_API_TIMEOUT
const EnvPrefix = "DEXBROWSE"

// Load loads the configuration from file. Without an explicit path a missing
// config file is not an error and defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check user config directory
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "dexbrowse"))
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DefaultCachePath is where the badger cache lives unless configured
func DefaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "dexbrowse")
	}
	return filepath.Join(os.TempDir(), "dexbrowse")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", "https://pokeapi.co/api/v2")
	v.SetDefault("api.timeout", 8*time.Second)
	v.SetDefault("api.max_attempts", 3)
	v.SetDefault("api.backoff_base", time.Second)
	v.SetDefault("api.backoff_jitter", time.Second)
	v.SetDefault("api.requests_per_second", 0)
	v.SetDefault("api.user_agent", "")

	// Cache defaults
	v.SetDefault("cache.backend", "badger")
	v.SetDefault("cache.path", DefaultCachePath())
	v.SetDefault("cache.ttl", 30*time.Minute)
	v.SetDefault("cache.memory_entries", 256)
	v.SetDefault("cache.max_bytes", 0)

	// Connectivity defaults
	v.SetDefault("connectivity.probe_url", "")
	v.SetDefault("connectivity.probe_interval", 30*time.Second)
	v.SetDefault("connectivity.force_offline", false)

	// Browse defaults
	v.SetDefault("browse.batch_size", 20)
	v.SetDefault("browse.detail_batch_size", 5)
	v.SetDefault("browse.debounce", 600*time.Millisecond)
	v.SetDefault("browse.suggestion_limit", 5)
	v.SetDefault("browse.suggestion_min_length", 2)
	v.SetDefault("browse.names_limit", 10000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL: %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if cfg.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be at least 1")
	}
	if cfg.API.BackoffBase < 0 || cfg.API.BackoffJitter < 0 {
		return fmt.Errorf("api.backoff_base and api.backoff_jitter must not be negative")
	}
	if cfg.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative")
	}

	switch cfg.Cache.Backend {
	case "badger":
		if cfg.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the badger backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid cache backend: %s (use badger or memory)", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	if cfg.Connectivity.ProbeURL != "" && cfg.Connectivity.ProbeInterval <= 0 {
		return fmt.Errorf("connectivity.probe_interval must be positive when probe_url is set")
	}

	if cfg.Browse.BatchSize < 1 || cfg.Browse.DetailBatchSize < 1 {
		return fmt.Errorf("browse.batch_size and browse.detail_batch_size must be at least 1")
	}
	if cfg.Browse.Debounce < 0 {
		return fmt.Errorf("browse.debounce must not be negative")
	}
	if cfg.Browse.SuggestionLimit < 1 {
		return fmt.Errorf("browse.suggestion_limit must be at least 1")
	}
	if cfg.Browse.NamesLimit < 1 {
		return fmt.Errorf("browse.names_limit must be at least 1")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
