package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSource identifies how a document entered the knowledge base
type DocumentSource string

const (
	SourceUserUpload      DocumentSource = "user_upload"
	SourceSystemGenerated DocumentSource = "system_generated"
)

// Document represents a knowledge base entry used for retrieval.
// Content is the unit that gets embedded and matched against queries.
type Document struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	Title      string         `json:"title" db:"title"`
	Content    string         `json:"content" db:"content"`
	Topic      string         `json:"topic,omitempty" db:"topic"`       // Free-text grouping label, exact-match filter
	OwnerID    *uuid.UUID     `json:"owner_id,omitempty" db:"owner_id"` // Null for system-generated documents
	IsPublic   bool           `json:"is_public" db:"is_public"`
	Source     DocumentSource `json:"source" db:"source"`
	Tags       []string       `json:"tags,omitempty" db:"tags"`
	Embedding  []float64      `json:"-" db:"embedding"` // Lazily computed; fixed corpus-wide dimension
	UsageCount int            `json:"usage_count" db:"usage_count"`
	LastUsedAt *time.Time     `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// NewDocument creates a new Document instance
func NewDocument(title, content, topic string, ownerID *uuid.UUID, isPublic bool, source DocumentSource) *Document {
	now := time.Now()
	return &Document{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		Topic:     topic,
		OwnerID:   ownerID,
		IsPublic:  isPublic,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasEmbedding reports whether the document vector has been computed
func (d *Document) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// VisibleTo reports whether the document may be returned to the given user.
// A nil user means no visibility filtering is applied.
func (d *Document) VisibleTo(userID *uuid.UUID) bool {
	if userID == nil {
		return true
	}
	if d.IsPublic {
		return true
	}
	return d.OwnerID != nil && *d.OwnerID == *userID
}
