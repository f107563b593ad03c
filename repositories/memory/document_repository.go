package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/models"
	"github.com/professor-ai/rag-service/repositories"
)

// DocumentRepository is an in-memory implementation of
// repositories.DocumentRepository. It backs the non-persisted corpus toggle
// and keeps tests hermetic.
type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*models.Document
}

// NewDocumentRepository creates a new in-memory document repository
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		docs: make(map[uuid.UUID]*models.Document),
	}
}

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, errDocumentNotFound()
	}
	return cloneDocument(doc), nil
}

// Find retrieves all documents matching the filter
func (r *DocumentRepository) Find(ctx context.Context, filter repositories.DocumentFilter) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Document
	for _, doc := range r.docs {
		if filter.Topic != "" && doc.Topic != filter.Topic {
			continue
		}
		if !doc.VisibleTo(filter.ViewerID) {
			continue
		}
		if filter.OwnerID != nil && (doc.OwnerID == nil || *doc.OwnerID != *filter.OwnerID) {
			continue
		}
		if filter.Source != "" && doc.Source != filter.Source {
			continue
		}
		out = append(out, cloneDocument(doc))
	}
	return out, nil
}

// SaveEmbedding persists a lazily computed embedding
func (r *DocumentRepository) SaveEmbedding(ctx context.Context, id uuid.UUID, vector []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return errDocumentNotFound()
	}
	doc.Embedding = append([]float64(nil), vector...)
	doc.UpdatedAt = time.Now()
	return nil
}

// RecordUsage increments the usage counter and advances the last-used timestamp
func (r *DocumentRepository) RecordUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return errDocumentNotFound()
	}
	doc.UsageCount++
	if doc.LastUsedAt == nil || usedAt.After(*doc.LastUsedAt) {
		t := usedAt
		doc.LastUsedAt = &t
	}
	return nil
}

// WithTx returns the repository itself; the in-memory store has no transactions
func (r *DocumentRepository) WithTx(tx repositories.Transaction) repositories.DocumentRepository {
	return r
}

// cloneDocument copies a document so callers cannot mutate stored state
func cloneDocument(doc *models.Document) *models.Document {
	out := *doc
	if doc.Embedding != nil {
		out.Embedding = append([]float64(nil), doc.Embedding...)
	}
	if doc.Tags != nil {
		out.Tags = append([]string(nil), doc.Tags...)
	}
	if doc.OwnerID != nil {
		id := *doc.OwnerID
		out.OwnerID = &id
	}
	if doc.LastUsedAt != nil {
		t := *doc.LastUsedAt
		out.LastUsedAt = &t
	}
	return &out
}
