// Package queue runs submitted batches in the background, one at a time.
package queue

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/storage"
	"go.uber.org/zap"
)

type QueueService struct {
	jobs            chan *models.ProcessingJob
	logger          *zap.Logger
	newOrchestrator OrchestratorFactory
	storage         *storage.StorageService

	mu     sync.RWMutex
	closed bool

	consumers atomic.Int32
	processed atomic.Int64
	failed    atomic.Int64
}

func NewQueueService(
	size int,
	newOrchestrator OrchestratorFactory,
	storage *storage.StorageService,
	logger *zap.Logger,
) (*QueueService, error) {
	if size < 1 {
		return nil, errors.New("queue size must be at least 1")
	}
	if newOrchestrator == nil || storage == nil {
		return nil, errors.New("queue needs an orchestrator factory and storage")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &QueueService{
		jobs:            make(chan *models.ProcessingJob, size),
		logger:          logger,
		newOrchestrator: newOrchestrator,
		storage:         storage,
	}, nil
}

// Close stops accepting jobs. Workers drain what is already queued.
func (q *QueueService) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}
