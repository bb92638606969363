package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol).
	LLMProvider string // gemini, openai, deepseek, siliconflow, ollama
	LLMAPIKey   string
	LLMBaseURL  string // optional, has default per provider
	LLMModel    string
	LLMTimeout  int // seconds, default 120

	// Embedding configuration. Dimensions must match the stored vectors.
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Listing collection layout.
	Database     string
	Collection   string
	VectorIndex  string
	TextKey      string
	EmbeddingKey string
	MetadataKey  string

	// ChatContextTopK is the number of listings retrieved as chat context.
	ChatContextTopK int

	// AllowedOrigins restricts browser clients. Empty allows any origin.
	AllowedOrigins []string

	Mode     string
	Addr     string
	Data     string
	Driver   string
	DSN      string
	Version  string
	LogLevel string
	Port     int
}

// Provider default configurations for LLM.
// Used when the base URL or model is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"gemini": {
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/",
		Model:   "gemma-3-27b-it",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

var supportedDrivers = map[string]bool{
	"mongo":    true,
	"postgres": true,
	"sqlite":   true,
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMConfigured reports whether a chat model can be reached.
// Local providers do not need a key.
func (p *Profile) IsLLMConfigured() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads the AI and collection settings from environment variables.
// Values already set by flags are kept.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("STAYNEST_AI_LLM_PROVIDER", "gemini")
	p.LLMAPIKey = getEnvOrDefault("STAYNEST_AI_LLM_API_KEY", os.Getenv("GOOGLE_API_KEY"))
	p.LLMBaseURL = getEnvOrDefault("STAYNEST_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("STAYNEST_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("STAYNEST_AI_LLM_TIMEOUT_SECONDS", 120)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, treating it as generic OpenAI-compatible", "provider", p.LLMProvider)
	} else {
		defaults := llmProviderDefaults[p.LLMProvider]
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	// bge-small-en-v1.5 served by an OpenAI-compatible embedding server (e.g. text-embeddings-inference).
	p.EmbeddingProvider = getEnvOrDefault("STAYNEST_AI_EMBEDDING_PROVIDER", "tei")
	p.EmbeddingModel = getEnvOrDefault("STAYNEST_AI_EMBEDDING_MODEL", "BAAI/bge-small-en-v1.5")
	p.EmbeddingAPIKey = getEnvOrDefault("STAYNEST_AI_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("STAYNEST_AI_EMBEDDING_BASE_URL", "http://localhost:8080/v1")
	p.EmbeddingDimensions = getEnvOrDefaultInt("STAYNEST_AI_EMBEDDING_DIMENSIONS", 384)

	p.ChatContextTopK = getEnvOrDefaultInt("STAYNEST_AI_CHAT_CONTEXT_TOP_K", 2)

	if p.Database == "" {
		p.Database = getEnvOrDefault("STAYNEST_DATABASE", "test")
	}
	if p.Collection == "" {
		p.Collection = getEnvOrDefault("STAYNEST_COLLECTION", "listings")
	}
	if p.VectorIndex == "" {
		p.VectorIndex = getEnvOrDefault("STAYNEST_VECTOR_INDEX", "vector_index")
	}
	p.TextKey = getEnvOrDefault("STAYNEST_TEXT_KEY", "text_for_ai")
	p.EmbeddingKey = getEnvOrDefault("STAYNEST_EMBEDDING_KEY", "embedding")
	p.MetadataKey = getEnvOrDefault("STAYNEST_METADATA_KEY", "image")

	// Origins may arrive as one comma separated value from the environment.
	origins := strings.Join(p.AllowedOrigins, ",")
	if origins == "" {
		origins = os.Getenv("STAYNEST_ALLOWED_ORIGINS")
	}
	p.AllowedOrigins = splitList(origins)

	// Names used by the Atlas deployment scripts.
	if p.DSN == "" && p.Driver == "mongo" {
		p.DSN = getEnvOrDefault("MONGO_ATLAS_URL", os.Getenv("ATLASDB_URL"))
	}
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if !supportedDrivers[p.Driver] {
		return errors.Errorf("unsupported driver %q, expected mongo, postgres or sqlite", p.Driver)
	}

	if p.Port <= 0 {
		p.Port = 8000
	}
	if p.ChatContextTopK <= 0 {
		p.ChatContextTopK = 2
	}
	if p.EmbeddingDimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}

	switch p.Driver {
	case "sqlite":
		if p.DSN != "" {
			return nil
		}
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("staynest_%s.db", p.Mode))
	default:
		if p.DSN == "" {
			return errors.Errorf("dsn required for %s driver", p.Driver)
		}
	}

	return nil
}
