// Package chat implements the retrieval-augmented listing assistant.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/staynest/ai/core/llm"
	"github.com/hrygo/staynest/ai/internal/strutil"
	"github.com/hrygo/staynest/ai/vector"
)

// SystemPrompt is the fixed instruction given to the model on every turn.
const SystemPrompt = "You are a helpful Airbnb Assistant. Use the context to recommend listings. Always mention the Price and Listing ID."

// DefaultContextTopK is the number of listings retrieved as context.
const DefaultContextTopK = 2

// logPreviewLength bounds user text copied into debug logs.
const logPreviewLength = 80

// ErrEmptyMessage is returned for a blank user message.
var ErrEmptyMessage = errors.New("message is required")

// Embedder turns the user message into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever finds listings near a query vector. *vector.Adapter implements it.
type Retriever interface {
	Query(ctx context.Context, vec []float32, topK int) ([]vector.Result, error)
}

// Observer receives chat and token metrics.
type Observer interface {
	RecordChatRequest(latency time.Duration, success bool)
	RecordLLMTokens(model string, promptTokens, completionTokens, cachedTokens int)
}

// Request is one user turn.
type Request struct {
	Message string
	// PageContext describes what the user is looking at, as sent by the web app.
	PageContext string
	// ListingID is the listing currently open in the web app, if any.
	ListingID string
}

// Config configures an Assistant.
type Config struct {
	ContextTopK int
	Model       string
	Observer    Observer
}

// Assistant answers questions about listings. It keeps no per-user state.
type Assistant struct {
	llm       llm.Service
	embedder  Embedder
	retriever Retriever
	topK      int
	model     string
	observer  Observer
}

// NewAssistant creates an Assistant from handles built once at start-up.
func NewAssistant(llmService llm.Service, embedder Embedder, retriever Retriever, cfg Config) *Assistant {
	topK := cfg.ContextTopK
	if topK <= 0 {
		topK = DefaultContextTopK
	}
	return &Assistant{
		llm:       llmService,
		embedder:  embedder,
		retriever: retriever,
		topK:      topK,
		model:     cfg.Model,
		observer:  cfg.Observer,
	}
}

// Chat embeds the message, retrieves matching listings and asks the model for a reply.
func (a *Assistant) Chat(ctx context.Context, req Request) (reply string, err error) {
	start := time.Now()
	defer func() {
		if a.observer != nil {
			a.observer.RecordChatRequest(time.Since(start), err == nil)
		}
	}()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	vec, err := a.embedder.Embed(ctx, message)
	if err != nil {
		return "", fmt.Errorf("failed to embed message: %w", err)
	}

	results, err := a.retriever.Query(ctx, vec, a.topK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve context: %w", err)
	}

	messages := llm.FormatMessages(buildSystemPrompt(results, req), message, nil)
	reply, stats, err := a.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	if a.observer != nil && stats != nil {
		a.observer.RecordLLMTokens(a.model, stats.PromptTokens, stats.CompletionTokens, stats.CacheReadTokens)
	}
	slog.Debug("chat: reply generated",
		"message", strutil.Truncate(message, logPreviewLength),
		"listing_id", req.ListingID,
		"context_listings", len(results),
		"reply_length", len(reply),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}
