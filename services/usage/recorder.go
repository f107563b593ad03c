package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/repositories"
	"go.uber.org/zap"
)

// event is a single usage-stat update waiting to be written
type event struct {
	docID  uuid.UUID
	usedAt time.Time
}

// Recorder writes document usage statistics asynchronously so that recording
// never blocks or fails a retrieval. Usage counters are an analytics signal:
// when the buffer is full, events are dropped rather than applying
// backpressure to the request path.
type Recorder struct {
	docs        repositories.DocumentRepository
	logger      *zap.Logger
	eventChan   chan event
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the Recorder
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1024,
		WorkerCount: 2,
	}
}

// NewRecorder creates a new Recorder instance
func NewRecorder(docs repositories.DocumentRepository, logger *zap.Logger, cfg Config) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultConfig().WorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Recorder{
		docs:        docs,
		logger:      logger,
		eventChan:   make(chan event, cfg.BufferSize),
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("usage recorder already started")
	}

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	r.started = true
	r.logger.Info("started usage recorder",
		zap.Int("worker_count", r.workerCount),
		zap.Int("buffer_size", cap(r.eventChan)))

	return nil
}

// Record enqueues a usage-stat update. Never blocks; drops the event when the
// buffer is full.
func (r *Recorder) Record(docID uuid.UUID, usedAt time.Time) {
	select {
	case r.eventChan <- event{docID: docID, usedAt: usedAt}:
	default:
		r.logger.Warn("usage event buffer full, dropping event",
			zap.String("document_id", docID.String()))
	}
}

// Stop gracefully stops the recorder, draining pending events up to the timeout
func (r *Recorder) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	r.mu.Unlock()

	close(r.eventChan)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		r.logger.Info("usage recorder stopped")
		return nil
	case <-time.After(timeout):
		r.cancel()
		return fmt.Errorf("usage recorder stop timed out after %s", timeout)
	}
}

// worker drains the event channel until it is closed
func (r *Recorder) worker() {
	defer r.wg.Done()

	for ev := range r.eventChan {
		if err := r.docs.RecordUsage(r.ctx, ev.docID, ev.usedAt); err != nil {
			r.logger.Warn("failed to record document usage",
				zap.String("document_id", ev.docID.String()),
				zap.Error(err))
		}
	}
}
