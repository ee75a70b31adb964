// internal/genai/config.go
package genai

import (
	"time"

	"codag/internal/common/config"
)

// Config holds the model service settings for one client.
type Config struct {
	BaseURL         string
	APIKey          string
	Model           string
	MaxAttempts     int
	MaxOutputTokens int
	Temperature     float64

	// RetryBaseWait is the unit of the exponential backoff (2^n of these
	// between rate-limited attempts). One second in production; tests
	// shrink it.
	RetryBaseWait time.Duration
}

// FromApp builds a client config from the application configuration.
func FromApp(cfg *config.Config) *Config {
	return &Config{
		BaseURL:         cfg.GenAI.BaseURL,
		APIKey:          cfg.GenAI.APIKey,
		Model:           cfg.GenAI.Model,
		MaxAttempts:     cfg.GenAI.MaxAttempts,
		MaxOutputTokens: cfg.GenAI.MaxOutputTokens,
		Temperature:     cfg.GenAI.Temperature,
		RetryBaseWait:   time.Second,
	}
}
