package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/models"
	"github.com/professor-ai/rag-service/repositories"
	"github.com/professor-ai/rag-service/services"
	"github.com/professor-ai/rag-service/services/embedding"
	"go.uber.org/zap"
)

// CreateDocumentInput carries the caller-provided fields of a new document
type CreateDocumentInput struct {
	Title    string
	Content  string
	Topic    string
	OwnerID  *uuid.UUID
	IsPublic bool
	Source   models.DocumentSource
	Tags     []string
}

// Service ingests documents into the knowledge base. Embeddings are computed
// eagerly at ingestion time; documents arriving through other paths are
// backfilled lazily by the retrieval orchestrator.
type Service struct {
	docs      repositories.DocumentRepository
	txManager repositories.TransactionManager
	embedder  embedding.Provider
	logger    *zap.Logger
}

// NewService creates a new ingestion service
func NewService(
	docs repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	embedder embedding.Provider,
	logger *zap.Logger,
) *Service {
	return &Service{
		docs:      docs,
		txManager: txManager,
		embedder:  embedder,
		logger:    logger,
	}
}

// CreateDocument validates, embeds and stores a single document
func (s *Service) CreateDocument(ctx context.Context, input CreateDocumentInput) (*models.Document, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, services.ErrEmptyTitle
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, services.ErrEmptyContent
	}

	source := input.Source
	if source == "" {
		source = models.SourceUserUpload
	}

	doc := models.NewDocument(input.Title, input.Content, input.Topic, input.OwnerID, input.IsPublic, source)
	doc.Tags = input.Tags

	res, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to embed document content", err)
	}
	if res.Degraded() {
		// Leave the embedding empty so retrieval backfills a real vector once
		// the provider recovers.
		s.logger.Warn("embedding degraded at ingestion, deferring to lazy backfill",
			zap.String("document_id", doc.ID.String()),
			zap.String("reason", res.Reason))
	} else {
		doc.Embedding = res.Vector
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID.String()),
		zap.String("topic", doc.Topic),
		zap.String("source", string(doc.Source)))

	return doc, nil
}

// CreateDocumentsFromSyllabus derives knowledge base documents from a
// syllabus: one overview document from its description plus one document per
// topic with content. All documents are created in a single transaction.
func (s *Service) CreateDocumentsFromSyllabus(ctx context.Context, syllabus models.Syllabus, ownerID *uuid.UUID) ([]*models.Document, error) {
	if strings.TrimSpace(syllabus.Title) == "" {
		return nil, services.ErrEmptyTitle
	}

	var inputs []CreateDocumentInput

	if strings.TrimSpace(syllabus.Description) != "" {
		inputs = append(inputs, CreateDocumentInput{
			Title:   fmt.Sprintf("%s - Overview", syllabus.Title),
			Content: syllabus.Description,
			Topic:   syllabus.Title,
			OwnerID: ownerID,
			Source:  models.SourceSystemGenerated,
			Tags:    append([]string{"overview"}, syllabus.Tags...),
		})
	}

	for _, topic := range syllabus.Topics {
		if strings.TrimSpace(topic.Content) == "" {
			continue
		}
		inputs = append(inputs, CreateDocumentInput{
			Title:   fmt.Sprintf("%s - %s", syllabus.Title, topic.Title),
			Content: topic.Content,
			Topic:   syllabus.Title,
			OwnerID: ownerID,
			Source:  models.SourceSystemGenerated,
			Tags:    append([]string{topic.Title}, syllabus.Tags...),
		})
	}

	if len(inputs) == 0 {
		return nil, services.ErrEmptySyllabus
	}

	var docs []*models.Document
	err := s.txManager.InTransaction(ctx, func(txCtx context.Context, tx repositories.Transaction) error {
		for _, input := range inputs {
			doc, err := s.CreateDocument(txCtx, input)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("syllabus ingested",
		zap.String("syllabus", syllabus.Title),
		zap.Int("documents", len(docs)))

	return docs, nil
}
