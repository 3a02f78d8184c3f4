package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables (prefix MEDIACORE_) take precedence over values from
// config files. Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory; env-only setups are
	// the common case, so a missing file is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("MEDIACORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every known key so AutomaticEnv picks
// up env-only overrides during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("batch.min_delay_ms", 0)
	v.SetDefault("batch.chunk_size", 3)
	v.SetDefault("batch.chunk_delay_ms", 1000)

	v.SetDefault("cache.payload_max_total_bytes", 100<<20) // 100 MiB
	v.SetDefault("cache.payload_max_entry_bytes", 10<<20)  // 10 MiB
	v.SetDefault("cache.payload_ttl_seconds", 3600)
	v.SetDefault("cache.media_max_entries", 500)
	v.SetDefault("cache.media_ttl_seconds", 3600)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
}
