package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCompletionServer serves /chat/completions with the given reply and records the last request.
func newCompletionServer(t *testing.T, status int, reply string, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
			return
		}
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: reply}}},
			Usage:   openai.Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewService_RequiresModel(t *testing.T) {
	_, err := NewService(&Config{Provider: "gemini"})
	require.Error(t, err)
}

func TestNewService_Defaults(t *testing.T) {
	svc, err := NewService(&Config{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k", MaxTokens: 2048, Temperature: 0.7})
	require.NoError(t, err)

	s, ok := svc.(*service)
	require.True(t, ok)
	assert.Equal(t, 2048, s.maxTokens)
	assert.Equal(t, float32(0.7), s.temperature)
	assert.Equal(t, 120, s.timeout)
}

func TestService_Chat(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newCompletionServer(t, http.StatusOK, "Try the loft. Price $120. Listing ID abc.", &got)

	svc, err := NewService(&Config{Provider: "gemini", Model: "gemma-3-27b-it", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	content, stats, err := svc.Chat(context.Background(), FormatMessages("system text", "hello", nil))
	require.NoError(t, err)
	assert.Equal(t, "Try the loft. Price $120. Listing ID abc.", content)
	require.NotNil(t, stats)
	assert.Equal(t, 15, stats.TotalTokens)

	assert.Equal(t, "gemma-3-27b-it", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestService_ChatUpstreamError(t *testing.T) {
	srv := newCompletionServer(t, http.StatusInternalServerError, "", nil)

	svc, err := NewService(&Config{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, _, err = svc.Chat(context.Background(), []Message{UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM chat failed")
}

func TestService_Warmup_NoPanic(t *testing.T) {
	srv := newCompletionServer(t, http.StatusInternalServerError, "", nil)

	svc, err := NewService(&Config{Provider: "ollama", Model: "llama3.1", BaseURL: srv.URL})
	require.NoError(t, err)

	assert.NotPanics(t, func() { svc.Warmup(context.Background()) })
}

func TestConvertMessages(t *testing.T) {
	converted := convertMessages([]Message{
		SystemPrompt("s"),
		UserMessage("u"),
		{Role: "assistant", Content: "a"},
		{Role: "tool", Content: "t"},
	})

	roles := make([]string, len(converted))
	for i, m := range converted {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}, roles)
}

func TestFormatMessages(t *testing.T) {
	history := []Message{UserMessage("earlier")}

	assert.Len(t, FormatMessages("", "now", nil), 1)
	msgs := FormatMessages("sys", "now", history)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "earlier", msgs[1].Content)
	assert.Equal(t, "now", msgs[2].Content)
}
