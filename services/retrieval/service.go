package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/config"
	"github.com/professor-ai/rag-service/models"
	"github.com/professor-ai/rag-service/repositories"
	"github.com/professor-ai/rag-service/services"
	"github.com/professor-ai/rag-service/services/embedding"
	"github.com/professor-ai/rag-service/services/prompt"
	"github.com/professor-ai/rag-service/services/similarity"
	"go.uber.org/zap"
)

// Result pairs a document with its similarity score against the query
type Result struct {
	Document   *models.Document `json:"document"`
	Similarity float64          `json:"similarity"`
}

// Options configures a single retrieval.
// Zero-valued Limit and nil Threshold fall back to the configured defaults.
type Options struct {
	// Topic restricts candidates to documents with this exact topic label
	Topic string

	// UserID is the acting user; candidates are their documents plus public
	// ones. Nil disables visibility filtering.
	UserID *uuid.UUID

	// Limit caps the number of results. Must be positive when set.
	Limit int

	// Threshold is the strict minimum similarity. Must be within [0,1] when set.
	Threshold *float64
}

// Enhancement is the outcome of the prompt-augmentation entry point
type Enhancement struct {
	EnhancedPrompt string             `json:"enhanced_prompt"`
	Documents      []*models.Document `json:"documents"`
}

// UsageRecorder records that a document was returned as a retrieval result.
// Recording is fire-and-forget; failures never fail a retrieval.
type UsageRecorder interface {
	Record(docID uuid.UUID, usedAt time.Time)
}

// Service orchestrates document retrieval: it embeds the query, ranks the
// candidate corpus by cosine similarity (backfilling missing embeddings along
// the way), applies threshold and limit, and records usage statistics.
type Service struct {
	docs     repositories.DocumentRepository
	embedder embedding.Provider
	composer *prompt.Composer
	usage    UsageRecorder
	cfg      config.RetrievalConfig
	logger   *zap.Logger
}

// NewService creates a new retrieval service
func NewService(
	docs repositories.DocumentRepository,
	embedder embedding.Provider,
	composer *prompt.Composer,
	usage UsageRecorder,
	cfg config.RetrievalConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		docs:     docs,
		embedder: embedder,
		composer: composer,
		usage:    usage,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search retrieves the documents most similar to the query, ordered by
// descending similarity with a stable ascending-ID tie-break, truncated to the
// limit. Every returned result scores strictly above the threshold.
func (s *Service) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	limit, threshold, err := s.resolveOptions(opts, s.cfg.DefaultLimit)
	if err != nil {
		return nil, err
	}

	// Embed the query. Provider outages degrade to a fallback vector inside
	// the provider, so retrieval itself stays available.
	queryRes, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to embed query", err)
	}
	if queryRes.Degraded() {
		s.logger.Warn("query embedded with fallback vector",
			zap.String("reason", queryRes.Reason))
	}

	candidates, err := s.docs.Find(ctx, repositories.DocumentFilter{
		Topic:    opts.Topic,
		ViewerID: opts.UserID,
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, doc := range candidates {
		vector := doc.Embedding
		if len(vector) == 0 {
			vector = s.backfillEmbedding(ctx, doc)
		}

		score, err := similarity.Cosine(queryRes.Vector, vector)
		if err != nil {
			// One corrupted row must not deny service for the whole corpus.
			s.logger.Warn("skipping document with mismatched embedding",
				zap.String("document_id", doc.ID.String()),
				zap.Error(err))
			continue
		}

		if score > threshold {
			results = append(results, Result{Document: doc, Similarity: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Document.ID.String() < results[j].Document.ID.String()
	})

	if len(results) > limit {
		results = results[:limit]
	}

	now := time.Now()
	for _, res := range results {
		s.usage.Record(res.Document.ID, now)
	}

	return results, nil
}

// EnhancePromptWithRAG is the public entry point consumed by the tutoring
// chat flow: it retrieves relevant documents for the user message and composes
// an augmented prompt with citation labels. Retrieval failures other than
// invalid arguments degrade to the original message with no documents, so a
// tutoring turn never fails because retrieval did.
func (s *Service) EnhancePromptWithRAG(ctx context.Context, userMessage string, opts Options) (*Enhancement, error) {
	if opts.Limit == 0 {
		opts.Limit = s.cfg.CitedLimit
	}

	results, err := s.Search(ctx, userMessage, opts)
	if err != nil {
		if services.IsValidationError(err) {
			return nil, err
		}
		s.logger.Error("retrieval failed, falling back to original prompt", zap.Error(err))
		return &Enhancement{EnhancedPrompt: userMessage, Documents: []*models.Document{}}, nil
	}

	docs := make([]*models.Document, len(results))
	for i, res := range results {
		docs[i] = res.Document
	}

	enhanced, cited := s.composer.Compose(userMessage, docs)
	return &Enhancement{EnhancedPrompt: enhanced, Documents: cited}, nil
}

// resolveOptions validates the options and applies defaults
func (s *Service) resolveOptions(opts Options, defaultLimit int) (int, float64, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit <= 0 {
		return 0, 0, services.ErrInvalidLimit
	}

	threshold := s.cfg.DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return 0, 0, services.ErrInvalidThreshold
	}

	return limit, threshold, nil
}

// backfillEmbedding computes and persists a missing document embedding.
// The locally computed vector is used for this request's ranking regardless of
// whether the write-back succeeds; concurrent backfills race benignly with
// last-writer-wins.
func (s *Service) backfillEmbedding(ctx context.Context, doc *models.Document) []float64 {
	res, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		s.logger.Warn("failed to embed document content",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err))
		return make([]float64, s.embedder.Dimension())
	}

	if res.Degraded() {
		// A fallback vector carries no semantic signal; persisting it would
		// poison the corpus until the document is re-embedded.
		s.logger.Warn("document embedded with fallback vector, skipping write-back",
			zap.String("document_id", doc.ID.String()),
			zap.String("reason", res.Reason))
		return res.Vector
	}

	if err := s.docs.SaveEmbedding(ctx, doc.ID, res.Vector); err != nil {
		s.logger.Warn("failed to persist backfilled embedding",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err))
	}

	doc.Embedding = res.Vector
	return res.Vector
}
