package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProfileDefaults checks the values FromEnv fills in on a clean environment.
func TestProfileDefaults(t *testing.T) {
	clearEnvVars(t)

	profile := &Profile{Driver: "mongo"}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"LLMProvider default", "gemini", profile.LLMProvider},
		{"LLMModel default", "gemma-3-27b-it", profile.LLMModel},
		{"LLMBaseURL default", "https://generativelanguage.googleapis.com/v1beta/openai/", profile.LLMBaseURL},
		{"EmbeddingModel default", "BAAI/bge-small-en-v1.5", profile.EmbeddingModel},
		{"Database default", "test", profile.Database},
		{"Collection default", "listings", profile.Collection},
		{"VectorIndex default", "vector_index", profile.VectorIndex},
		{"TextKey default", "text_for_ai", profile.TextKey},
		{"EmbeddingKey default", "embedding", profile.EmbeddingKey},
		{"MetadataKey default", "image", profile.MetadataKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.actual)
		})
	}

	assert.Equal(t, 384, profile.EmbeddingDimensions)
	assert.Equal(t, 2, profile.ChatContextTopK)
	assert.Equal(t, 120, profile.LLMTimeout)
	assert.False(t, profile.IsLLMConfigured())
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "LLM provider overrides default model",
			envVar:   "STAYNEST_AI_LLM_PROVIDER",
			envValue: "deepseek",
			field:    func(p *Profile) string { return p.LLMModel },
			expected: "deepseek-chat",
		},
		{
			name:     "explicit LLM model wins",
			envVar:   "STAYNEST_AI_LLM_MODEL",
			envValue: "gemini-2.0-flash",
			field:    func(p *Profile) string { return p.LLMModel },
			expected: "gemini-2.0-flash",
		},
		{
			name:     "atlas url is used as mongo dsn",
			envVar:   "MONGO_ATLAS_URL",
			envValue: "mongodb+srv://cluster.example.net",
			field:    func(p *Profile) string { return p.DSN },
			expected: "mongodb+srv://cluster.example.net",
		},
		{
			name:     "legacy atlas variable",
			envVar:   "ATLASDB_URL",
			envValue: "mongodb://localhost:27017",
			field:    func(p *Profile) string { return p.DSN },
			expected: "mongodb://localhost:27017",
		},
		{
			name:     "collection override",
			envVar:   "STAYNEST_COLLECTION",
			envValue: "stays",
			field:    func(p *Profile) string { return p.Collection },
			expected: "stays",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv(tt.envVar, tt.envValue)

			profile := &Profile{Driver: "mongo"}
			profile.FromEnv()

			assert.Equal(t, tt.expected, tt.field(profile))
		})
	}
}

func TestProfileAllowedOrigins(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("STAYNEST_ALLOWED_ORIGINS", "https://staynest.app, ,http://localhost:3000")

	profile := &Profile{Driver: "sqlite"}
	profile.FromEnv()
	assert.Equal(t, []string{"https://staynest.app", "http://localhost:3000"}, profile.AllowedOrigins)

	flagged := &Profile{Driver: "sqlite", AllowedOrigins: []string{"https://admin.staynest.app"}}
	flagged.FromEnv()
	assert.Equal(t, []string{"https://admin.staynest.app"}, flagged.AllowedOrigins)

	joined := &Profile{Driver: "sqlite", AllowedOrigins: []string{"https://a.example,https://b.example"}}
	joined.FromEnv()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, joined.AllowedOrigins)
}

func TestProfileIsLLMConfigured(t *testing.T) {
	assert.True(t, (&Profile{LLMProvider: "ollama"}).IsLLMConfigured())
	assert.True(t, (&Profile{LLMProvider: "gemini", LLMAPIKey: "key"}).IsLLMConfigured())
	assert.False(t, (&Profile{LLMProvider: "gemini"}).IsLLMConfigured())
}

func TestProfileValidate(t *testing.T) {
	dataDir := t.TempDir()

	tests := []struct {
		name    string
		profile *Profile
		wantErr string
		check   func(t *testing.T, p *Profile)
	}{
		{
			name:    "unknown driver",
			profile: &Profile{Driver: "mysql", EmbeddingDimensions: 384},
			wantErr: "unsupported driver",
		},
		{
			name:    "mongo without dsn",
			profile: &Profile{Driver: "mongo", EmbeddingDimensions: 384},
			wantErr: "dsn required",
		},
		{
			name:    "zero dimensions",
			profile: &Profile{Driver: "mongo", DSN: "mongodb://localhost", EmbeddingDimensions: 0},
			wantErr: "embedding dimensions",
		},
		{
			name:    "unknown mode falls back to demo",
			profile: &Profile{Driver: "postgres", DSN: "postgres://localhost/staynest", Mode: "staging", EmbeddingDimensions: 384},
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, "demo", p.Mode)
				assert.Equal(t, 8000, p.Port)
			},
		},
		{
			name:    "sqlite dsn derived from data dir",
			profile: &Profile{Driver: "sqlite", Data: dataDir, Mode: "dev", EmbeddingDimensions: 384},
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, filepath.Join(dataDir, "staynest_dev.db"), p.DSN)
			},
		},
		{
			name:    "sqlite missing data dir",
			profile: &Profile{Driver: "sqlite", Data: filepath.Join(dataDir, "missing"), EmbeddingDimensions: 384},
			wantErr: "unable to access data folder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, tt.profile)
			}
		})
	}
}

// clearEnvVars unsets every variable FromEnv reads for the duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	keys := []string{
		"STAYNEST_AI_LLM_PROVIDER",
		"STAYNEST_AI_LLM_API_KEY",
		"STAYNEST_AI_LLM_BASE_URL",
		"STAYNEST_AI_LLM_MODEL",
		"STAYNEST_AI_LLM_TIMEOUT_SECONDS",
		"STAYNEST_AI_EMBEDDING_PROVIDER",
		"STAYNEST_AI_EMBEDDING_MODEL",
		"STAYNEST_AI_EMBEDDING_API_KEY",
		"STAYNEST_AI_EMBEDDING_BASE_URL",
		"STAYNEST_AI_EMBEDDING_DIMENSIONS",
		"STAYNEST_AI_CHAT_CONTEXT_TOP_K",
		"STAYNEST_DATABASE",
		"STAYNEST_COLLECTION",
		"STAYNEST_VECTOR_INDEX",
		"STAYNEST_TEXT_KEY",
		"STAYNEST_EMBEDDING_KEY",
		"STAYNEST_METADATA_KEY",
		"GOOGLE_API_KEY",
		"MONGO_ATLAS_URL",
		"ATLASDB_URL",
		"STAYNEST_ALLOWED_ORIGINS",
	}
	for _, key := range keys {
		// t.Setenv registers the restore; Unsetenv then clears it for this test.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}
