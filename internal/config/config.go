package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Batch  BatchConfig  `mapstructure:"batch"  validate:"required"`
	Cache  CacheConfig  `mapstructure:"cache"  validate:"required"`
	LLM    LLMConfig    `mapstructure:"llm"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// BatchConfig contains the dispatch policy for batched generation calls.
type BatchConfig struct {
	// MaxConcurrent bounds simultaneously in-flight generation tasks
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"required,gte=1"`

	// MinDelayMs is slept by each task after the first before it starts
	MinDelayMs int `mapstructure:"min_delay_ms" validate:"gte=0"`

	// ChunkSize is the group size for sequential chunked dispatch
	ChunkSize int `mapstructure:"chunk_size" validate:"required,gte=1"`

	// ChunkDelayMs is the pause between successfully completed chunks
	ChunkDelayMs int `mapstructure:"chunk_delay_ms" validate:"gte=0"`
}

// MinDelay returns the per-task dispatch delay as a duration.
func (c BatchConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

// ChunkDelay returns the inter-chunk pause as a duration.
func (c BatchConfig) ChunkDelay() time.Duration {
	return time.Duration(c.ChunkDelayMs) * time.Millisecond
}

// CacheConfig contains the budgets for the in-memory media caches.
// All budgets are fixed at startup.
type CacheConfig struct {
	// Payload cache (bounded by total byte size)
	PayloadMaxTotalBytes int64 `mapstructure:"payload_max_total_bytes" validate:"required,gt=0"`
	PayloadMaxEntryBytes int64 `mapstructure:"payload_max_entry_bytes" validate:"required,gt=0"`
	PayloadTTLSeconds    int   `mapstructure:"payload_ttl_seconds"     validate:"required,gt=0"`

	// Media cache (bounded by entry count)
	MediaMaxEntries int `mapstructure:"media_max_entries" validate:"required,gt=0"`
	MediaTTLSeconds int `mapstructure:"media_ttl_seconds" validate:"required,gt=0"`
}

// PayloadTTL returns the payload cache TTL as a duration.
func (c CacheConfig) PayloadTTL() time.Duration {
	return time.Duration(c.PayloadTTLSeconds) * time.Second
}

// MediaTTL returns the media cache TTL as a duration.
func (c CacheConfig) MediaTTL() time.Duration {
	return time.Duration(c.MediaTTLSeconds) * time.Second
}

// LLMConfig contains all LLM integration related settings. The API key is
// optional; when it is empty the generation surface stays disabled.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`
}
