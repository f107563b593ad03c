package retrieval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/config"
	"github.com/professor-ai/rag-service/models"
	"github.com/professor-ai/rag-service/repositories"
	"github.com/professor-ai/rag-service/services"
	"github.com/professor-ai/rag-service/services/embedding"
	"github.com/professor-ai/rag-service/services/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockDocumentRepository is a mock implementation of repositories.DocumentRepository
type mockDocumentRepository struct {
	mock.Mock
}

func (m *mockDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *mockDocumentRepository) Find(ctx context.Context, filter repositories.DocumentFilter) ([]*models.Document, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *mockDocumentRepository) SaveEmbedding(ctx context.Context, id uuid.UUID, vector []float64) error {
	args := m.Called(ctx, id, vector)
	return args.Error(0)
}

func (m *mockDocumentRepository) RecordUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	args := m.Called(ctx, id, usedAt)
	return args.Error(0)
}

func (m *mockDocumentRepository) WithTx(tx repositories.Transaction) repositories.DocumentRepository {
	return m
}

// stubEmbedder maps known texts to canned results; unknown texts get a zero vector
type stubEmbedder struct {
	dim     int
	results map[string]embedding.Result
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) (embedding.Result, error) {
	if res, ok := s.results[text]; ok {
		return res, nil
	}
	return embedding.Result{Vector: make([]float64, s.dim), Status: embedding.StatusOK}, nil
}

func (s *stubEmbedder) Dimension() int {
	return s.dim
}

// captureRecorder collects recorded document IDs
type captureRecorder struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (c *captureRecorder) Record(docID uuid.UUID, usedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, docID)
}

func (c *captureRecorder) recorded() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uuid.UUID(nil), c.ids...)
}

func ok(vector []float64) embedding.Result {
	return embedding.Result{Vector: vector, Status: embedding.StatusOK}
}

func testConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		DefaultLimit:     3,
		CitedLimit:       5,
		DefaultThreshold: 0.7,
		IncludeCitations: true,
	}
}

func newTestService(repo *mockDocumentRepository, embedder embedding.Provider, recorder UsageRecorder) *Service {
	return NewService(repo, embedder, prompt.NewComposer(true), recorder, testConfig(), zap.NewNop())
}

func docWithEmbedding(title string, vector []float64) *models.Document {
	return &models.Document{
		ID:        uuid.New(),
		Title:     title,
		Content:   title + " content",
		Embedding: vector,
	}
}

func TestSearchRanksAboveThreshold(t *testing.T) {
	repo := new(mockDocumentRepository)
	recorder := &captureRecorder{}
	embedder := &stubEmbedder{
		dim:     3,
		results: map[string]embedding.Result{"calculus question": ok([]float64{1, 0, 0})},
	}
	service := newTestService(repo, embedder, recorder)

	exact := docWithEmbedding("exact match", []float64{1, 0, 0})   // similarity 1.0
	near := docWithEmbedding("near match", []float64{1, 1, 0})     // similarity ~0.707
	unrelated := docWithEmbedding("unrelated", []float64{0, 1, 0}) // similarity 0
	opposite := docWithEmbedding("opposite", []float64{-1, 0, 0})  // similarity -1
	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{unrelated, near, exact, opposite}, nil)

	results, err := service.Search(context.Background(), "calculus question", Options{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, exact.ID, results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Equal(t, near.ID, results[1].Document.ID)
	assert.InDelta(t, 0.7071, results[1].Similarity, 1e-3)

	// Only returned results get usage recorded
	assert.ElementsMatch(t, []uuid.UUID{exact.ID, near.ID}, recorder.recorded())
}

func TestSearchThresholdIsStrict(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{
		dim:     2,
		results: map[string]embedding.Result{"query": ok([]float64{1, 0})},
	}
	service := newTestService(repo, embedder, &captureRecorder{})

	// Similarity is exactly 1.0 against an identical vector
	doc := docWithEmbedding("identical", []float64{1, 0})
	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{doc}, nil)

	threshold := 1.0
	results, err := service.Search(context.Background(), "query", Options{Threshold: &threshold})

	require.NoError(t, err)
	assert.Empty(t, results, "a score equal to the threshold must be excluded")
}

func TestSearchLimitTruncates(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{
		dim:     2,
		results: map[string]embedding.Result{"query": ok([]float64{1, 0})},
	}
	recorder := &captureRecorder{}
	service := newTestService(repo, embedder, recorder)

	docs := []*models.Document{
		docWithEmbedding("a", []float64{1, 0}),
		docWithEmbedding("b", []float64{1, 0.1}),
		docWithEmbedding("c", []float64{1, 0.2}),
		docWithEmbedding("d", []float64{1, 0.3}),
	}
	repo.On("Find", mock.Anything, mock.Anything).Return(docs, nil)

	threshold := 0.1
	results, err := service.Search(context.Background(), "query", Options{Limit: 2, Threshold: &threshold})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.Title)
	assert.Equal(t, "b", results[1].Document.Title)
	assert.Len(t, recorder.recorded(), 2, "truncated results must not be recorded")
}

func TestSearchTieBreakByID(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{
		dim:     2,
		results: map[string]embedding.Result{"query": ok([]float64{1, 0})},
	}
	service := newTestService(repo, embedder, &captureRecorder{})

	first := docWithEmbedding("twin one", []float64{1, 0})
	second := docWithEmbedding("twin two", []float64{1, 0})
	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{second, first}, nil)

	results, err := service.Search(context.Background(), "query", Options{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Less(t, results[0].Document.ID.String(), results[1].Document.ID.String())
}

func TestSearchEmptyCorpus(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{dim: 2, results: map[string]embedding.Result{"query": ok([]float64{1, 0})}}
	recorder := &captureRecorder{}
	service := newTestService(repo, embedder, recorder)

	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{}, nil)

	results, err := service.Search(context.Background(), "query", Options{})

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, recorder.recorded())
}

func TestSearchValidatesOptions(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{dim: 2}
	service := newTestService(repo, embedder, &captureRecorder{})

	_, err := service.Search(context.Background(), "query", Options{Limit: -1})
	assert.ErrorIs(t, err, services.ErrInvalidLimit)

	bad := 1.5
	_, err = service.Search(context.Background(), "query", Options{Threshold: &bad})
	assert.ErrorIs(t, err, services.ErrInvalidThreshold)

	negative := -0.1
	_, err = service.Search(context.Background(), "query", Options{Threshold: &negative})
	assert.ErrorIs(t, err, services.ErrInvalidThreshold)

	repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestSearchPassesFilterToRepository(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{dim: 2, results: map[string]embedding.Result{"query": ok([]float64{1, 0})}}
	service := newTestService(repo, embedder, &captureRecorder{})

	userID := uuid.New()
	repo.On("Find", mock.Anything, repositories.DocumentFilter{
		Topic:    "math",
		ViewerID: &userID,
	}).Return([]*models.Document{}, nil)

	_, err := service.Search(context.Background(), "query", Options{Topic: "math", UserID: &userID})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSearchBackfillsMissingEmbedding(t *testing.T) {
	repo := new(mockDocumentRepository)
	backfilled := []float64{1, 0}
	embedder := &stubEmbedder{
		dim: 2,
		results: map[string]embedding.Result{
			"query":            ok([]float64{1, 0}),
			"lazy doc content": ok(backfilled),
		},
	}
	service := newTestService(repo, embedder, &captureRecorder{})

	doc := &models.Document{ID: uuid.New(), Title: "lazy doc", Content: "lazy doc content"}
	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{doc}, nil)
	repo.On("SaveEmbedding", mock.Anything, doc.ID, backfilled).Return(nil)

	results, err := service.Search(context.Background(), "query", Options{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	repo.AssertExpectations(t)
}

func TestSearchSkipsWriteBackOfDegradedVectors(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{
		dim: 2,
		results: map[string]embedding.Result{
			"query": ok([]float64{1, 0}),
			"lazy doc content": {
				Vector: []float64{0.4, 0.6},
				Status: embedding.StatusFallback,
				Reason: "provider down",
			},
		},
	}
	service := newTestService(repo, embedder, &captureRecorder{})

	doc := &models.Document{ID: uuid.New(), Title: "lazy doc", Content: "lazy doc content"}
	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{doc}, nil)

	_, err := service.Search(context.Background(), "query", Options{})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "SaveEmbedding", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchSkipsMismatchedEmbeddings(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{dim: 2, results: map[string]embedding.Result{"query": ok([]float64{1, 0})}}
	service := newTestService(repo, embedder, &captureRecorder{})

	healthy := docWithEmbedding("healthy", []float64{1, 0})
	corrupted := docWithEmbedding("corrupted", []float64{1, 0, 0, 0})
	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{corrupted, healthy}, nil)

	results, err := service.Search(context.Background(), "query", Options{})

	require.NoError(t, err, "one corrupted row must not fail the whole search")
	require.Len(t, results, 1)
	assert.Equal(t, healthy.ID, results[0].Document.ID)
}

func TestSearchSurvivesDegradedQueryEmbedding(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{
		dim: 2,
		results: map[string]embedding.Result{
			"query": {Vector: []float64{1, 0}, Status: embedding.StatusFallback, Reason: "provider down"},
		},
	}
	service := newTestService(repo, embedder, &captureRecorder{})

	doc := docWithEmbedding("doc", []float64{1, 0})
	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{doc}, nil)

	results, err := service.Search(context.Background(), "query", Options{})

	require.NoError(t, err, "provider outages must not deny retrieval")
	require.Len(t, results, 1)
}

func TestEnhancePromptWithRAG(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{
		dim:     2,
		results: map[string]embedding.Result{"What is a limit?": ok([]float64{1, 0})},
	}
	service := newTestService(repo, embedder, &captureRecorder{})

	doc := docWithEmbedding("Limits", []float64{1, 0})
	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{doc}, nil)

	enhancement, err := service.EnhancePromptWithRAG(context.Background(), "What is a limit?", Options{})

	require.NoError(t, err)
	require.Len(t, enhancement.Documents, 1)
	assert.Contains(t, enhancement.EnhancedPrompt, "What is a limit?")
	assert.Contains(t, enhancement.EnhancedPrompt, "[Document 1] Limits")
	assert.Contains(t, enhancement.EnhancedPrompt, "[Document X] notation")
}

func TestEnhancePromptWithRAGEmptyCorpus(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{dim: 2, results: map[string]embedding.Result{"question": ok([]float64{1, 0})}}
	service := newTestService(repo, embedder, &captureRecorder{})

	repo.On("Find", mock.Anything, mock.Anything).Return([]*models.Document{}, nil)

	enhancement, err := service.EnhancePromptWithRAG(context.Background(), "question", Options{})

	require.NoError(t, err)
	assert.Equal(t, "question", enhancement.EnhancedPrompt)
	assert.Empty(t, enhancement.Documents)
}

func TestEnhancePromptWithRAGDegradesOnRepositoryFailure(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{dim: 2, results: map[string]embedding.Result{"question": ok([]float64{1, 0})}}
	service := newTestService(repo, embedder, &captureRecorder{})

	repo.On("Find", mock.Anything, mock.Anything).Return(nil, services.ErrDatabaseError)

	enhancement, err := service.EnhancePromptWithRAG(context.Background(), "question", Options{})

	require.NoError(t, err, "retrieval failures degrade to the original prompt")
	assert.Equal(t, "question", enhancement.EnhancedPrompt)
	assert.Empty(t, enhancement.Documents)
}

func TestEnhancePromptWithRAGSurfacesValidationErrors(t *testing.T) {
	repo := new(mockDocumentRepository)
	embedder := &stubEmbedder{dim: 2}
	service := newTestService(repo, embedder, &captureRecorder{})

	bad := 2.0
	_, err := service.EnhancePromptWithRAG(context.Background(), "question", Options{Threshold: &bad})

	assert.ErrorIs(t, err, services.ErrInvalidThreshold)
}
