package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := LoadConfig()
	cfg.Assistant.APIKey = "sk-test"
	cfg.Assistant.ExtractID = "asst_extract"
	cfg.Assistant.ScoreID = "asst_score"
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("ASSISTANT_POLL_INTERVAL", "")
	t.Setenv("ASSISTANT_TIMEOUT", "")

	cfg := LoadConfig()
	assert.Equal(t, "resumes.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Second, cfg.Assistant.PollInterval)
	assert.Equal(t, 180*time.Second, cfg.Assistant.Timeout)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Assistant.BaseURL)
	assert.Equal(t, "mistral-ocr-latest", cfg.OCR.Model)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/alt.db")
	t.Setenv("ASSISTANT_POLL_INTERVAL", "500ms")
	t.Setenv("ASSISTANT_TIMEOUT", "not a duration")

	cfg := LoadConfig()
	assert.Equal(t, "/tmp/alt.db", cfg.Database.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Assistant.PollInterval)
	assert.Equal(t, 180*time.Second, cfg.Assistant.Timeout, "unparsable duration falls back to the default")
}

func TestConfigValidate(t *testing.T) {
	t.Run("complete config passes", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name  string
		mutate func(*Config)
	}{
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }},
		{name: "missing api key", mutate: func(c *Config) { c.Assistant.APIKey = "" }},
		{name: "missing extraction assistant", mutate: func(c *Config) { c.Assistant.ExtractID = "" }},
		{name: "missing scoring assistant", mutate: func(c *Config) { c.Assistant.ScoreID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var appErr *AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "CONFIG_ERROR", appErr.Code)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
