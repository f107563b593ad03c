package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/middleware"
	"github.com/professor-ai/rag-service/models"
	"github.com/professor-ai/rag-service/services"
	"github.com/professor-ai/rag-service/services/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockRetrievalService is a mock implementation of RetrievalService
type mockRetrievalService struct {
	mock.Mock
}

func (m *mockRetrievalService) Search(ctx context.Context, query string, opts retrieval.Options) ([]retrieval.Result, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Result), args.Error(1)
}

func (m *mockRetrievalService) EnhancePromptWithRAG(ctx context.Context, userMessage string, opts retrieval.Options) (*retrieval.Enhancement, error) {
	args := m.Called(ctx, userMessage, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Enhancement), args.Error(1)
}

func postJSON(t *testing.T, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleSearch(t *testing.T) {
	service := new(mockRetrievalService)
	handler := NewRetrievalHandler(service, zap.NewNop())

	doc := &models.Document{ID: uuid.New(), Title: "Limits"}
	threshold := 0.8
	service.On("Search", mock.Anything, "what is a limit", retrieval.Options{
		Topic:     "math",
		Limit:     2,
		Threshold: &threshold,
	}).Return([]retrieval.Result{{Document: doc, Similarity: 0.91}}, nil)

	req := postJSON(t, "/api/v1/retrieval/search", map[string]interface{}{
		"query":     "what is a limit",
		"topic":     "math",
		"limit":     2,
		"threshold": 0.8,
	})
	rec := httptest.NewRecorder()
	handler.HandleSearch(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)

	var resp struct {
		Data []retrieval.Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Limits", resp.Data[0].Document.Title)
	assert.Equal(t, 0.91, resp.Data[0].Similarity)
}

func TestHandleSearchForwardsUserID(t *testing.T) {
	service := new(mockRetrievalService)
	handler := NewRetrievalHandler(service, zap.NewNop())

	userID := uuid.New()
	service.On("Search", mock.Anything, "query", retrieval.Options{UserID: &userID}).
		Return([]retrieval.Result{}, nil)

	req := postJSON(t, "/api/v1/retrieval/search", map[string]interface{}{"query": "query"})
	req = req.WithContext(middleware.WithUserID(req.Context(), &userID))
	rec := httptest.NewRecorder()
	handler.HandleSearch(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestHandleSearchInvalidBody(t *testing.T) {
	handler := NewRetrievalHandler(new(mockRetrievalService), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/retrieval/search", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.HandleSearch(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearchValidatesRequest(t *testing.T) {
	handler := NewRetrievalHandler(new(mockRetrievalService), zap.NewNop())

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"missing query", map[string]interface{}{"topic": "math"}},
		{"limit too large", map[string]interface{}{"query": "q", "limit": 51}},
		{"negative threshold", map[string]interface{}{"query": "q", "threshold": -0.1}},
		{"threshold above one", map[string]interface{}{"query": "q", "threshold": 1.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleSearch(rec, postJSON(t, "/api/v1/retrieval/search", tt.payload))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleSearchServiceError(t *testing.T) {
	service := new(mockRetrievalService)
	handler := NewRetrievalHandler(service, zap.NewNop())

	service.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, services.ErrDatabaseError)

	rec := httptest.NewRecorder()
	handler.HandleSearch(rec, postJSON(t, "/api/v1/retrieval/search", map[string]interface{}{"query": "q"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleEnhance(t *testing.T) {
	service := new(mockRetrievalService)
	handler := NewRetrievalHandler(service, zap.NewNop())

	service.On("EnhancePromptWithRAG", mock.Anything, "what is a limit", retrieval.Options{Topic: "math"}).
		Return(&retrieval.Enhancement{
			EnhancedPrompt: "augmented",
			Documents:      []*models.Document{{Title: "Limits"}},
		}, nil)

	rec := httptest.NewRecorder()
	handler.HandleEnhance(rec, postJSON(t, "/api/v1/retrieval/enhance", map[string]interface{}{
		"message": "what is a limit",
		"topic":   "math",
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)

	var resp struct {
		Data retrieval.Enhancement `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "augmented", resp.Data.EnhancedPrompt)
	assert.Len(t, resp.Data.Documents, 1)
}

func TestHandleEnhanceMissingMessage(t *testing.T) {
	handler := NewRetrievalHandler(new(mockRetrievalService), zap.NewNop())

	rec := httptest.NewRecorder()
	handler.HandleEnhance(rec, postJSON(t, "/api/v1/retrieval/enhance", map[string]interface{}{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
