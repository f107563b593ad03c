package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	ownerID := uuid.New()

	doc := NewDocument("Algebra Basics", "Variables stand for unknown values.", "math", &ownerID, false, SourceUserUpload)

	require.NotNil(t, doc)
	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, "Algebra Basics", doc.Title)
	assert.Equal(t, "math", doc.Topic)
	assert.Equal(t, &ownerID, doc.OwnerID)
	assert.Equal(t, SourceUserUpload, doc.Source)
	assert.False(t, doc.HasEmbedding())
	assert.Zero(t, doc.UsageCount)
	assert.Nil(t, doc.LastUsedAt)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestHasEmbedding(t *testing.T) {
	doc := &Document{}
	assert.False(t, doc.HasEmbedding())

	doc.Embedding = []float64{0.1, 0.2}
	assert.True(t, doc.HasEmbedding())
}

func TestVisibleTo(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name     string
		doc      Document
		viewer   *uuid.UUID
		expected bool
	}{
		{
			name:     "anonymous viewer sees everything",
			doc:      Document{OwnerID: &owner, IsPublic: false},
			viewer:   nil,
			expected: true,
		},
		{
			name:     "owner sees own private document",
			doc:      Document{OwnerID: &owner, IsPublic: false},
			viewer:   &owner,
			expected: true,
		},
		{
			name:     "stranger cannot see private document",
			doc:      Document{OwnerID: &owner, IsPublic: false},
			viewer:   &stranger,
			expected: false,
		},
		{
			name:     "anyone sees public document",
			doc:      Document{OwnerID: &owner, IsPublic: true},
			viewer:   &stranger,
			expected: true,
		},
		{
			name:     "unowned private document is hidden from users",
			doc:      Document{OwnerID: nil, IsPublic: false},
			viewer:   &stranger,
			expected: false,
		},
		{
			name:     "unowned public document is visible",
			doc:      Document{OwnerID: nil, IsPublic: true},
			viewer:   &stranger,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.doc.VisibleTo(tt.viewer))
		})
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "documents", Document{}.TableName())
}
