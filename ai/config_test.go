package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/staynest/internal/profile"
)

func TestNewConfigFromProfile(t *testing.T) {
	prof := &profile.Profile{
		LLMProvider:         "gemini",
		LLMAPIKey:           "google-key",
		LLMBaseURL:          "https://generativelanguage.googleapis.com/v1beta/openai/",
		LLMModel:            "gemma-3-27b-it",
		LLMTimeout:          90,
		EmbeddingProvider:   "tei",
		EmbeddingModel:      "BAAI/bge-small-en-v1.5",
		EmbeddingBaseURL:    "http://localhost:8080/v1",
		EmbeddingDimensions: 384,
		ChatContextTopK:     3,
	}

	cfg := NewConfigFromProfile(prof)

	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Embedding.Model)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, "http://localhost:8080/v1", cfg.Embedding.BaseURL)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemma-3-27b-it", cfg.LLM.Model)
	assert.Equal(t, "google-key", cfg.LLM.APIKey)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, float32(0.7), cfg.LLM.Temperature)
	assert.Equal(t, 90, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Chat.ContextTopK)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromProfile_DefaultContextTopK(t *testing.T) {
	cfg := NewConfigFromProfile(&profile.Profile{})
	assert.Equal(t, 2, cfg.Chat.ContextTopK)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Embedding: EmbeddingConfig{Model: "BAAI/bge-small-en-v1.5", Dimensions: 384},
			LLM:       LLMConfig{Provider: "gemini", APIKey: "key"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "ollama needs no key", mutate: func(c *Config) { c.LLM = LLMConfig{Provider: "ollama"} }},
		{name: "missing embedding model", mutate: func(c *Config) { c.Embedding.Model = "" }, wantErr: "embedding model"},
		{name: "zero dimensions", mutate: func(c *Config) { c.Embedding.Dimensions = 0 }, wantErr: "dimensions"},
		{name: "missing provider", mutate: func(c *Config) { c.LLM.Provider = "" }, wantErr: "LLM provider"},
		{name: "missing key", mutate: func(c *Config) { c.LLM.APIKey = "" }, wantErr: "API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
