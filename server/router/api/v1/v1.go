package v1

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/staynest/ai"
	"github.com/hrygo/staynest/ai/cache"
	"github.com/hrygo/staynest/ai/chat"
	"github.com/hrygo/staynest/ai/format"
	"github.com/hrygo/staynest/ai/metrics"
	"github.com/hrygo/staynest/ai/recommend"
	"github.com/hrygo/staynest/ai/vector"
	"github.com/hrygo/staynest/internal/profile"
	"github.com/hrygo/staynest/store"
)

// Recommender is the recommendation surface used by the handlers. *recommend.Engine implements it.
type Recommender interface {
	ByID(ctx context.Context, listingID string, topK int) ([]recommend.Recommendation, error)
	ByText(ctx context.Context, description string, topK int) ([]recommend.Recommendation, error)
	ByHistory(ctx context.Context, historyIDs []string, topK int) ([]recommend.Recommendation, error)
}

// ChatAssistant answers chat messages. *chat.Assistant implements it.
type ChatAssistant interface {
	Chat(ctx context.Context, req chat.Request) (string, error)
}

// Embedder embeds free text. ai.EmbeddingService implements it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const (
	queryEmbeddingCacheSize = 1024
	queryEmbeddingCacheTTL  = 30 * time.Minute
)

type APIV1Service struct {
	Profile *profile.Profile

	Recommender Recommender
	// ChatAssistant is nil when no language model is configured.
	ChatAssistant ChatAssistant
	Embedder      Embedder
	Formatter     format.Formatter
}

// NewAPIV1Service builds the AI services once from the profile and the shared store.
// A missing language model disables chat but keeps recommendations available.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, exporter *metrics.PrometheusExporter) (*APIV1Service, error) {
	aiConfig := ai.NewConfigFromProfile(profile)

	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	// Query texts repeat across requests; listing embeddings come from the store.
	queryEmbedder := cache.NewCachedEmbedder(embeddingService, queryEmbeddingCacheSize, queryEmbeddingCacheTTL)

	adapter := vector.NewAdapter(store, exporter)
	service := &APIV1Service{
		Profile:     profile,
		Recommender: recommend.NewEngine(store, adapter, queryEmbedder, exporter),
		Embedder:    queryEmbedder,
		Formatter:   format.NewFormatter(),
	}

	if err := aiConfig.Validate(); err != nil {
		slog.Warn("AI config validation failed, chat will be disabled", "error", err)
		return service, nil
	}

	llmService, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		slog.Warn("Failed to initialize LLM service",
			"provider", aiConfig.LLM.Provider,
			"error", err,
			"note", "chat will be disabled",
		)
		return service, nil
	}
	slog.Info("LLM service initialized",
		"provider", aiConfig.LLM.Provider,
		"model", aiConfig.LLM.Model,
	)

	// Best-effort warmup to reduce first-request latency.
	go func() {
		warmupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		llmService.Warmup(warmupCtx)
	}()

	service.ChatAssistant = chat.NewAssistant(llmService, queryEmbedder, adapter, chat.Config{
		ContextTopK: aiConfig.Chat.ContextTopK,
		Model:       aiConfig.LLM.Model,
		Observer:    exporter,
	})
	return service, nil
}

// RegisterRoutes registers the API routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/", s.Health)
	echoServer.POST("/recommend", s.Recommend)
	echoServer.POST("/recommend-for-user", s.RecommendForUser)
	echoServer.POST("/chat", s.Chat)
	echoServer.POST("/get-embedding", s.GetEmbedding)
}
