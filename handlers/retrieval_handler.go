package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/professor-ai/rag-service/middleware"
	"github.com/professor-ai/rag-service/services/retrieval"
	"github.com/professor-ai/rag-service/utils"
	"go.uber.org/zap"
)

// SearchRequest is the payload for POST /api/v1/retrieval/search
type SearchRequest struct {
	Query     string   `json:"query" validate:"required"`
	Topic     string   `json:"topic,omitempty"`
	Limit     int      `json:"limit,omitempty" validate:"omitempty,gte=1,lte=50"`
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// EnhanceRequest is the payload for POST /api/v1/retrieval/enhance
type EnhanceRequest struct {
	Message string `json:"message" validate:"required"`
	Topic   string `json:"topic,omitempty"`
}

// RetrievalService defines the retrieval operations the handler depends on
type RetrievalService interface {
	Search(ctx context.Context, query string, opts retrieval.Options) ([]retrieval.Result, error)
	EnhancePromptWithRAG(ctx context.Context, userMessage string, opts retrieval.Options) (*retrieval.Enhancement, error)
}

// RetrievalHandler handles retrieval-related HTTP requests
type RetrievalHandler struct {
	service RetrievalService
	logger  *zap.Logger
}

// NewRetrievalHandler creates a new RetrievalHandler
func NewRetrievalHandler(service RetrievalService, logger *zap.Logger) *RetrievalHandler {
	return &RetrievalHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSearch handles POST /api/v1/retrieval/search
func (h *RetrievalHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	results, err := h.service.Search(ctx, req.Query, retrieval.Options{
		Topic:     req.Topic,
		UserID:    middleware.GetUserIDFromContext(ctx),
		Limit:     req.Limit,
		Threshold: req.Threshold,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, results)
}

// HandleEnhance handles POST /api/v1/retrieval/enhance
func (h *RetrievalHandler) HandleEnhance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EnhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	enhancement, err := h.service.EnhancePromptWithRAG(ctx, req.Message, retrieval.Options{
		Topic:  req.Topic,
		UserID: middleware.GetUserIDFromContext(ctx),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, enhancement)
}
