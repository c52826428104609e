package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth (optional; endpoints are open when unset)
	APIKey string

	// Inference service
	OpenAIAPIKey string
	VisionModel  string
	TextModel    string
	LLMTimeout   time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Batch extraction
	MaxConcurrentExtract int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "3001"),

		APIKey: os.Getenv("FIELDLENS_API_KEY"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		VisionModel:  envOr("OPENAI_VISION_MODEL", "gpt-4o"),
		TextModel:    envOr("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
		LLMTimeout:   envDuration("LLM_TIMEOUT", 120*time.Second),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 26214400), // 25MB

		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 4),
	}

	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 26214400
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 4
	}

	return cfg
}

func (c Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.VisionModel == "" {
		return fmt.Errorf("OPENAI_VISION_MODEL must not be empty")
	}
	if c.TextModel == "" {
		return fmt.Errorf("OPENAI_TEXT_MODEL must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
