package tutor

import (
	"context"
	"fmt"

	"github.com/professor-ai/rag-service/models"
	"github.com/professor-ai/rag-service/services/llm"
	"github.com/professor-ai/rag-service/services/retrieval"
	"go.uber.org/zap"
)

// ChatClient is the chat-completion collaborator
type ChatClient interface {
	ChatCompletion(ctx context.Context, messages []llm.Message) (*llm.Completion, error)
}

// Enhancer is the retrieval-augmentation collaborator
type Enhancer interface {
	EnhancePromptWithRAG(ctx context.Context, userMessage string, opts retrieval.Options) (*retrieval.Enhancement, error)
}

// Answer is the outcome of a tutoring turn
type Answer struct {
	Response  string             `json:"response"`
	Documents []*models.Document `json:"documents"`
	Degraded  bool               `json:"degraded"` // True when no documents backed the answer
}

// Service runs a single tutoring turn: it augments the user question with
// retrieved knowledge base documents, then asks the configured LLM to answer
// with citations.
type Service struct {
	enhancer Enhancer
	chat     ChatClient
	logger   *zap.Logger
}

// NewService creates a new tutor service
func NewService(enhancer Enhancer, chat ChatClient, logger *zap.Logger) *Service {
	return &Service{
		enhancer: enhancer,
		chat:     chat,
		logger:   logger,
	}
}

// Ask answers a user question using retrieval-augmented generation
func (s *Service) Ask(ctx context.Context, question string, opts retrieval.Options) (*Answer, error) {
	enhancement, err := s.enhancer.EnhancePromptWithRAG(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt(opts.Topic)},
		{Role: "user", Content: enhancement.EnhancedPrompt},
	}

	completion, err := s.chat.ChatCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tutoring turn completed",
		zap.Int("documents", len(enhancement.Documents)),
		zap.Int("prompt_tokens", completion.PromptTokens),
		zap.Int("completion_tokens", completion.CompletionTokens))

	return &Answer{
		Response:  completion.Content,
		Documents: enhancement.Documents,
		Degraded:  len(enhancement.Documents) == 0,
	}, nil
}

// systemPrompt builds the tutoring persona prompt
func systemPrompt(topic string) string {
	subject := topic
	if subject == "" {
		subject = "various subjects"
	}
	return fmt.Sprintf("You are Professor AI, a personalized AI tutor specializing in %s. "+
		"Explain concepts clearly, use concrete examples, and encourage the student to ask follow-up questions.", subject)
}
