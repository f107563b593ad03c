package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/middleware"
	"github.com/professor-ai/rag-service/models"
	"github.com/professor-ai/rag-service/repositories"
	"github.com/professor-ai/rag-service/services"
	"github.com/professor-ai/rag-service/services/ingest"
	"github.com/professor-ai/rag-service/utils"
	"go.uber.org/zap"
)

// CreateDocumentRequest is the payload for POST /api/v1/documents
type CreateDocumentRequest struct {
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	Topic    string   `json:"topic,omitempty"`
	IsPublic bool     `json:"is_public,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// SyllabusIngestRequest is the payload for POST /api/v1/documents/syllabus
type SyllabusIngestRequest struct {
	Syllabus models.Syllabus `json:"syllabus" validate:"required"`
}

// IngestService defines the ingestion operations the handler depends on
type IngestService interface {
	CreateDocument(ctx context.Context, input ingest.CreateDocumentInput) (*models.Document, error)
	CreateDocumentsFromSyllabus(ctx context.Context, syllabus models.Syllabus, ownerID *uuid.UUID) ([]*models.Document, error)
}

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	ingest IngestService
	docs   repositories.DocumentRepository
	logger *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(ingest IngestService, docs repositories.DocumentRepository, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingest: ingest,
		docs:   docs,
		logger: logger,
	}
}

// HandleCreate handles POST /api/v1/documents
func (h *DocumentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	doc, err := h.ingest.CreateDocument(ctx, ingest.CreateDocumentInput{
		Title:    req.Title,
		Content:  req.Content,
		Topic:    req.Topic,
		OwnerID:  middleware.GetUserIDFromContext(ctx),
		IsPublic: req.IsPublic,
		Source:   models.SourceUserUpload,
		Tags:     req.Tags,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, doc)
}

// HandleList handles GET /api/v1/documents.
// Returns the documents visible to the acting user, optionally filtered by topic.
func (h *DocumentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.docs.Find(ctx, repositories.DocumentFilter{
		Topic:    r.URL.Query().Get("topic"),
		ViewerID: middleware.GetUserIDFromContext(ctx),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, docs)
}

// HandleGet handles GET /api/v1/documents/{id}
func (h *DocumentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid document ID", nil)
		return
	}

	doc, err := h.docs.GetByID(ctx, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if !doc.VisibleTo(middleware.GetUserIDFromContext(ctx)) {
		HandleServiceError(w, services.ErrForbidden, h.logger)
		return
	}

	_ = utils.WriteOK(w, doc)
}

// HandleSyllabusIngest handles POST /api/v1/documents/syllabus
func (h *DocumentHandler) HandleSyllabusIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SyllabusIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	docs, err := h.ingest.CreateDocumentsFromSyllabus(ctx, req.Syllabus, middleware.GetUserIDFromContext(ctx))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, docs)
}
