package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	OCR       OCRConfig
	Assistant AssistantConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	SignedURLTTL  time.Duration
	UploadTimeout time.Duration
}

// AssistantConfig holds AI assistant configuration for both pipeline stages.
type AssistantConfig struct {
	APIKey       string
	BaseURL      string
	ExtractID    string
	ScoreID      string
	PollInterval time.Duration
	Timeout      time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "resumes.db"),
		},
		OCR: OCRConfig{
			APIKey:        getEnv("MISTRAL_API_KEY", ""),
			BaseURL:       getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
			Model:         getEnv("OCR_MODEL", "mistral-ocr-latest"),
			SignedURLTTL:  getEnvAsDuration("OCR_SIGNED_URL_TTL", 10*time.Minute),
			UploadTimeout: getEnvAsDuration("OCR_UPLOAD_TIMEOUT", 2*time.Minute),
		},
		Assistant: AssistantConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ExtractID:    getEnv("ASSISTANT_ID_EXTRACT", ""),
			ScoreID:      getEnv("ASSISTANT_ID_SCORE", ""),
			PollInterval: getEnvAsDuration("ASSISTANT_POLL_INTERVAL", 2*time.Second),
			Timeout:      getEnvAsDuration("ASSISTANT_TIMEOUT", 180*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks that everything the two AI stages depend on is present.
// Missing keys here are blocking configuration errors, never retried.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "DATABASE_PATH is required", ErrInvalidInput)
	}
	if c.Assistant.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Assistant.ExtractID == "" {
		return NewAppError("CONFIG_ERROR", "ASSISTANT_ID_EXTRACT is required", ErrInvalidInput)
	}
	if c.Assistant.ScoreID == "" {
		return NewAppError("CONFIG_ERROR", "ASSISTANT_ID_SCORE is required", ErrInvalidInput)
	}
	return nil
}
