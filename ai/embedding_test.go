package ai

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

// newEmbeddingServer answers /embeddings with one vector per input, in reverse order.
// Each vector is [index, length of input].
func newEmbeddingServer(t *testing.T, got *openai.EmbeddingRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req struct {
			Input      []string `json:"input"`
			Model      string   `json:"model"`
			Dimensions int      `json:"dimensions"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got != nil {
			got.Model = openai.EmbeddingModel(req.Model)
			got.Dimensions = req.Dimensions
			got.Input = req.Input
		}

		resp := openai.EmbeddingResponse{Object: "list", Model: openai.EmbeddingModel(req.Model)}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, openai.Embedding{
				Object:    "embedding",
				Index:     i,
				Embedding: []float32{float32(i), float32(len(req.Input[i]))},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbeddingService_EmbedBatchKeepsInputOrder(t *testing.T) {
	var got openai.EmbeddingRequest
	srv := newEmbeddingServer(t, &got)

	svc, err := NewEmbeddingService(&EmbeddingConfig{Provider: "tei", Model: "BAAI/bge-small-en-v1.5", BaseURL: srv.URL, Dimensions: 384})
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 2}, {2, 3}}, vectors)
	assert.Equal(t, openai.EmbeddingModel("BAAI/bge-small-en-v1.5"), got.Model)
	assert.Zero(t, got.Dimensions, "dimensions is only sent to openai")
	assert.Equal(t, 384, svc.Dimensions())
}

func TestEmbeddingService_OpenAISendsDimensions(t *testing.T) {
	var got openai.EmbeddingRequest
	srv := newEmbeddingServer(t, &got)

	svc, err := NewEmbeddingService(&EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", BaseURL: srv.URL, Dimensions: 384})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "cozy loft")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 9}, vec)
	assert.Equal(t, 384, got.Dimensions)
}

func TestEmbeddingService_Errors(t *testing.T) {
	_, err := NewEmbeddingService(&EmbeddingConfig{})
	require.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"model loading","type":"server_error"}}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(&EmbeddingConfig{Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), nil)
	require.Error(t, err)

	_, err = svc.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create embeddings failed")
}
