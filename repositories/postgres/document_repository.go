package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/professor-ai/rag-service/models"
	"github.com/professor-ai/rag-service/repositories"
	"github.com/professor-ai/rag-service/services"
	"go.uber.org/zap"
)

// DocumentRepository implements the repositories.DocumentRepository interface
type DocumentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB, logger *zap.Logger) repositories.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

const documentColumns = `id, title, content, topic, owner_id, is_public, source, tags, embedding, usage_count, last_used_at, created_at, updated_at`

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, title, content, topic, owner_id, is_public, source, tags, embedding, usage_count, last_used_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.Topic,
		doc.OwnerID,
		doc.IsPublic,
		doc.Source,
		pq.Array(doc.Tags),
		pq.Array(doc.Embedding),
		doc.UsageCount,
		doc.LastUsedAt,
		doc.CreatedAt,
		doc.UpdatedAt,
	)

	if err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to create document", err)
	}

	r.logger.Debug("document created", zap.String("id", doc.ID.String()))
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)

	executor := GetExecutor(ctx, r.db)
	doc, err := scanDocument(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.ErrDocumentNotFound
		}
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to get document", err)
	}

	return doc, nil
}

// Find retrieves all documents matching the filter
func (r *DocumentRepository) Find(ctx context.Context, filter repositories.DocumentFilter) ([]*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE 1=1`, documentColumns)
	args := []interface{}{}
	argn := 1

	if filter.Topic != "" {
		query += fmt.Sprintf(" AND topic = $%d", argn)
		args = append(args, filter.Topic)
		argn++
	}
	if filter.ViewerID != nil {
		query += fmt.Sprintf(" AND (owner_id = $%d OR is_public = TRUE)", argn)
		args = append(args, *filter.ViewerID)
		argn++
	}
	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argn)
		args = append(args, *filter.OwnerID)
		argn++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argn)
		args = append(args, filter.Source)
		argn++
	}

	query += " ORDER BY created_at DESC"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to find documents", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to scan document", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to iterate documents", err)
	}

	return docs, nil
}

// SaveEmbedding persists a lazily computed embedding (write-back cache fill)
func (r *DocumentRepository) SaveEmbedding(ctx context.Context, id uuid.UUID, vector []float64) error {
	query := `
		UPDATE documents
		SET embedding = $2, updated_at = $3
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, pq.Array(vector), time.Now())
	if err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to save embedding", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return services.ErrDocumentNotFound
	}

	r.logger.Debug("embedding saved", zap.String("id", id.String()), zap.Int("dimensions", len(vector)))
	return nil
}

// RecordUsage increments the usage counter and advances the last-used timestamp
func (r *DocumentRepository) RecordUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	query := `
		UPDATE documents
		SET usage_count = usage_count + 1,
		    last_used_at = GREATEST(COALESCE(last_used_at, $2), $2)
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, id, usedAt); err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to record document usage", err)
	}

	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *DocumentRepository) WithTx(tx repositories.Transaction) repositories.DocumentRepository {
	// Repositories resolve the transaction through the context, so the
	// instance itself carries no transaction state.
	return r
}

// rowScanner abstracts *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanDocument scans a single document row
func scanDocument(row rowScanner) (*models.Document, error) {
	doc := &models.Document{}
	var ownerID uuid.NullUUID
	var tags pq.StringArray
	var embedding pq.Float64Array
	var lastUsedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.Topic,
		&ownerID,
		&doc.IsPublic,
		&doc.Source,
		&tags,
		&embedding,
		&doc.UsageCount,
		&lastUsedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		doc.OwnerID = &ownerID.UUID
	}
	doc.Tags = tags
	doc.Embedding = embedding
	if lastUsedAt.Valid {
		doc.LastUsedAt = &lastUsedAt.Time
	}

	return doc, nil
}
