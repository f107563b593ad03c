package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/professor-ai/rag-service/config"
	"go.uber.org/zap"
)

// Client calls an OpenAI-compatible embeddings endpoint.
//
// On any provider failure (network error, timeout, non-2xx status, malformed
// payload, wrong dimensionality) it degrades to a pseudo-random vector of the
// configured dimension instead of returning an error, tagged so observability
// can distinguish degraded responses from genuine embeddings.
type Client struct {
	baseURL        string
	model          string
	dimensions     int
	encodingFormat string
	httpClient     *http.Client
	logger         *zap.Logger
}

// NewClient creates a new embeddings client
func NewClient(cfg config.EmbeddingConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          cfg.Model,
		dimensions:     cfg.Dimensions,
		encodingFormat: cfg.EncodingFormat,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

// Dimension returns the corpus-wide embedding dimensionality
func (c *Client) Dimension() int {
	return c.dimensions
}

// embedRequest is the OpenAI-compatible embeddings payload
type embedRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format,omitempty"`
}

// embedResponse is the OpenAI-compatible embeddings response
type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns an embedding vector for the given text.
// Whitespace-only input yields a zero vector without an API call.
func (c *Client) Embed(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{Vector: make([]float64, c.dimensions), Status: StatusOK}, nil
	}

	vector, err := c.requestEmbedding(ctx, text)
	if err != nil {
		c.logger.Warn("embedding provider unavailable, using fallback vector",
			zap.String("model", c.model),
			zap.Error(err))
		return Result{
			Vector: c.fallbackVector(),
			Status: StatusFallback,
			Reason: err.Error(),
		}, nil
	}

	if len(vector) != c.dimensions {
		// A provider returning the wrong dimensionality would corrupt the
		// corpus invariant, so it is treated like an outage.
		c.logger.Warn("embedding provider returned unexpected dimensionality",
			zap.Int("got", len(vector)),
			zap.Int("want", c.dimensions))
		return Result{
			Vector: c.fallbackVector(),
			Status: StatusFallback,
			Reason: fmt.Sprintf("unexpected dimensionality %d", len(vector)),
		}, nil
	}

	return Result{Vector: vector, Status: StatusOK}, nil
}

// requestEmbedding performs the HTTP call against the provider
func (c *Client) requestEmbedding(ctx context.Context, text string) ([]float64, error) {
	payload, err := json.Marshal(embedRequest{
		Model:          c.model,
		Input:          text,
		EncodingFormat: c.encodingFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding provider returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	var out embedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response contained no vector")
	}

	return out.Data[0].Embedding, nil
}

// fallbackVector produces a pseudo-random vector of the configured dimension
func (c *Client) fallbackVector() []float64 {
	v := make([]float64, c.dimensions)
	for i := range v {
		v[i] = rand.Float64()
	}
	return v
}
