package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/professor-ai/rag-service/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string, dimensions int) *Client {
	return NewClient(config.EmbeddingConfig{
		BaseURL:        baseURL,
		Model:          "llama3",
		Dimensions:     dimensions,
		EncodingFormat: "float",
		Timeout:        2 * time.Second,
	}, zap.NewNop())
}

func TestEmbedSuccess(t *testing.T) {
	vector := []float64{0.1, 0.2, 0.3}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		assert.Equal(t, "hello world", req["input"])
		assert.Equal(t, "float", req["encoding_format"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": vector}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	res, err := client.Embed(context.Background(), "hello world")

	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.False(t, res.Degraded())
	assert.Equal(t, vector, res.Vector)
}

func TestEmbedWhitespaceInput(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(server.URL, 4)
	res, err := client.Embed(context.Background(), "   \n\t  ")

	require.NoError(t, err)
	assert.False(t, called, "whitespace input must not hit the provider")
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []float64{0, 0, 0, 0}, res.Vector)
}

func TestEmbedProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 8)
	res, err := client.Embed(context.Background(), "some query")

	require.NoError(t, err, "provider outages degrade, they never error")
	assert.Equal(t, StatusFallback, res.Status)
	assert.True(t, res.Degraded())
	assert.NotEmpty(t, res.Reason)
	assert.Len(t, res.Vector, 8)
}

func TestEmbedProviderUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Immediately close so the request fails at the socket

	client := newTestClient(server.URL, 5)
	res, err := client.Embed(context.Background(), "some query")

	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Len(t, res.Vector, 5)
}

func TestEmbedWrongDimensionality(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float64{0.1, 0.2}}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	res, err := client.Embed(context.Background(), "some query")

	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Contains(t, res.Reason, "unexpected dimensionality 2")
	assert.Len(t, res.Vector, 3, "fallback vector keeps the configured dimension")
}

func TestEmbedEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	res, err := client.Embed(context.Background(), "some query")

	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Len(t, res.Vector, 3)
}

func TestDimension(t *testing.T) {
	client := newTestClient("http://localhost:11434", 384)
	assert.Equal(t, 384, client.Dimension())
}
