package ai

import (
	"github.com/hrygo/staynest/ai/core/llm"
)

// Message represents a chat message.
type Message = llm.Message

// LLMCallStats represents statistics for a single LLM call.
type LLMCallStats = llm.LLMCallStats

// LLMService is the LLM service interface.
type LLMService = llm.Service

// NewLLMService creates a new LLMService.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	return llm.NewService((*llm.Config)(cfg))
}
