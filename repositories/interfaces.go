package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Automatically commits if the function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// DocumentFilter narrows the candidate set for retrieval.
// Zero-valued fields are ignored.
type DocumentFilter struct {
	// Topic restricts candidates to documents with this exact topic label
	Topic string

	// ViewerID applies the visibility rule: documents owned by this user OR
	// public documents. Nil means no visibility filtering.
	ViewerID *uuid.UUID

	// OwnerID restricts candidates to documents created by this user
	OwnerID *uuid.UUID

	// Source restricts candidates by ingestion source
	Source models.DocumentSource
}

// DocumentRepository handles knowledge base document operations.
// The retrieval subsystem never hard-deletes documents.
type DocumentRepository interface {
	// Create creates a new document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)

	// Find retrieves all documents matching the filter
	Find(ctx context.Context, filter DocumentFilter) ([]*models.Document, error)

	// SaveEmbedding persists a lazily computed embedding (write-back cache fill).
	// Concurrent writers may race; last writer wins.
	SaveEmbedding(ctx context.Context, id uuid.UUID, vector []float64) error

	// RecordUsage increments the usage counter and advances the last-used
	// timestamp. The counter is an analytics signal; lossy updates under
	// concurrency are acceptable.
	RecordUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) DocumentRepository
}

// Repositories bundles all repository instances
type Repositories struct {
	Documents DocumentRepository
}
