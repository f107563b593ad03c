package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/professor-ai/rag-service/config"
	"github.com/professor-ai/rag-service/services"
	"go.uber.org/zap"
)

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the answer produced by the chat-completion endpoint
type Completion struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// Client calls an OpenAI-compatible chat-completion endpoint
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	maxRetries  int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a new chat-completion client
func NewClient(cfg config.LLMConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// chatRequest is the OpenAI-compatible chat-completion payload
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// chatResponse is the OpenAI-compatible chat-completion response
type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// ChatCompletion sends the messages to the configured model and returns the
// first choice. Transient failures (network errors, 5xx) are retried up to the
// configured number of attempts.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (*Completion, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to marshal chat request", err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, services.NewDomainError(services.ErrorTypeExternal, "chat completion cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to create chat request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode < 500 {
			break
		}
		if resp != nil {
			resp.Body.Close()
			lastErr = fmt.Errorf("LLM provider returned %s", resp.Status)
			resp = nil
		}
		c.logger.Warn("chat completion attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}

	if resp == nil {
		return nil, services.NewDomainError(services.ErrorTypeExternal, "LLM provider unavailable", lastErr)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeExternal, "failed to read chat response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.NewDomainError(services.ErrorTypeExternal,
			fmt.Sprintf("LLM provider returned %s", resp.Status), nil)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeExternal, "failed to decode chat response", err)
	}
	if len(out.Choices) == 0 {
		return nil, services.NewDomainError(services.ErrorTypeExternal, "chat response contained no choices", nil)
	}

	return &Completion{
		Content:          out.Choices[0].Message.Content,
		FinishReason:     out.Choices[0].FinishReason,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}, nil
}
