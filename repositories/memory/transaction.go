package memory

import (
	"context"

	"github.com/professor-ai/rag-service/repositories"
	"github.com/professor-ai/rag-service/services"
)

func errDocumentNotFound() error {
	return services.ErrDocumentNotFound
}

// TransactionManager is a no-op transaction manager for the in-memory store.
// The memory driver offers no atomicity; it exists for development and tests.
type TransactionManager struct{}

// NewTransactionManager creates a no-op transaction manager
func NewTransactionManager() repositories.TransactionManager {
	return &TransactionManager{}
}

// Begin starts a no-op transaction
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &Transaction{ctx: ctx}, nil
}

// InTransaction executes the function directly
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, &Transaction{ctx: ctx})
}

// Transaction is a no-op transaction
type Transaction struct {
	ctx context.Context
}

// Commit is a no-op
func (t *Transaction) Commit() error { return nil }

// Rollback is a no-op
func (t *Transaction) Rollback() error { return nil }

// Context returns the transaction context
func (t *Transaction) Context() context.Context { return t.ctx }
