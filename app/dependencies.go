package app

import (
	"context"
	"fmt"
	"time"

	"github.com/professor-ai/rag-service/config"
	"github.com/professor-ai/rag-service/handlers"
	"github.com/professor-ai/rag-service/middleware"
	"github.com/professor-ai/rag-service/repositories"
	"github.com/professor-ai/rag-service/repositories/memory"
	"github.com/professor-ai/rag-service/repositories/postgres"
	"github.com/professor-ai/rag-service/services/embedding"
	"github.com/professor-ai/rag-service/services/ingest"
	"github.com/professor-ai/rag-service/services/llm"
	"github.com/professor-ai/rag-service/services/prompt"
	"github.com/professor-ai/rag-service/services/retrieval"
	"github.com/professor-ai/rag-service/services/tutor"
	"github.com/professor-ai/rag-service/services/usage"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Storage
	RepoFactory *postgres.RepositoryFactory // Nil when running on the in-memory store
	Repos       *repositories.Repositories
	TxManager   repositories.TransactionManager

	// Retrieval engine
	Embedder  embedding.Provider
	Composer  *prompt.Composer
	Usage     *usage.Recorder
	Retrieval *retrieval.Service
	Ingest    *ingest.Service

	// Tutoring
	LLM   *llm.Client
	Tutor *tutor.Service

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, validator middleware.TokenValidator) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStorage(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	deps.initServices(cfg)
	deps.AuthMiddleware = middleware.NewAuthMiddleware(validator, logger)

	if err := deps.Usage.Start(); err != nil {
		return nil, fmt.Errorf("failed to start usage recorder: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("storage_driver", cfg.Storage.Driver))
	return deps, nil
}

// initStorage initializes the configured corpus backend
func (d *Dependencies) initStorage(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		if err := factory.InitSchema(ctx); err != nil {
			factory.Close()
			return err
		}
		d.RepoFactory = factory
		d.Repos = factory.NewRepositories()
		d.TxManager = factory.GetTransactionManager()

	case config.StorageDriverMemory:
		d.Repos = &repositories.Repositories{
			Documents: memory.NewDocumentRepository(),
		}
		d.TxManager = memory.NewTransactionManager()

	default:
		return fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}

	return nil
}

// initServices wires the retrieval engine and the tutoring flow
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Embedder = embedding.NewClient(cfg.Embedding, d.Logger)
	d.Composer = prompt.NewComposer(cfg.Retrieval.IncludeCitations)
	d.Usage = usage.NewRecorder(d.Repos.Documents, d.Logger, usage.DefaultConfig())

	d.Retrieval = retrieval.NewService(
		d.Repos.Documents,
		d.Embedder,
		d.Composer,
		d.Usage,
		cfg.Retrieval,
		d.Logger,
	)
	d.Ingest = ingest.NewService(d.Repos.Documents, d.TxManager, d.Embedder, d.Logger)

	d.LLM = llm.NewClient(cfg.LLM, d.Logger)
	d.Tutor = tutor.NewService(d.Retrieval, d.LLM, d.Logger)
}

// HealthPinger returns the database health checker, or nil for the in-memory store
func (d *Dependencies) HealthPinger() handlers.Pinger {
	if d.RepoFactory == nil {
		return nil
	}
	return d.RepoFactory.GetDB()
}

// Close releases all resources
func (d *Dependencies) Close() {
	if d.Usage != nil {
		if err := d.Usage.Stop(5 * time.Second); err != nil {
			d.Logger.Warn("usage recorder shutdown incomplete", zap.Error(err))
		}
	}
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			d.Logger.Warn("failed to close repositories", zap.Error(err))
		}
	}
}
