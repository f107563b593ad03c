package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/professor-ai/rag-service/middleware"
	"github.com/professor-ai/rag-service/services/retrieval"
	"github.com/professor-ai/rag-service/services/tutor"
	"github.com/professor-ai/rag-service/utils"
	"go.uber.org/zap"
)

// AskRequest is the payload for POST /api/v1/tutor/ask
type AskRequest struct {
	Question string `json:"question" validate:"required"`
	Topic    string `json:"topic,omitempty"`
}

// TutorService defines the tutoring operations the handler depends on
type TutorService interface {
	Ask(ctx context.Context, question string, opts retrieval.Options) (*tutor.Answer, error)
}

// TutorHandler handles tutoring HTTP requests
type TutorHandler struct {
	service TutorService
	logger  *zap.Logger
}

// NewTutorHandler creates a new TutorHandler
func NewTutorHandler(service TutorService, logger *zap.Logger) *TutorHandler {
	return &TutorHandler{
		service: service,
		logger:  logger,
	}
}

// HandleAsk handles POST /api/v1/tutor/ask
func (h *TutorHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	answer, err := h.service.Ask(ctx, req.Question, retrieval.Options{
		Topic:  req.Topic,
		UserID: middleware.GetUserIDFromContext(ctx),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, answer)
}
