package queue

import (
	"errors"

	"github.com/phambaophuc/meta-shift/internal/services/batch"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrQueueClosed = errors.New("job queue is closed")
	ErrJobNotFound = errors.New("job not found")
	ErrJobPanicked = errors.New("job panicked")
)

// OrchestratorFactory returns a fresh, empty orchestrator for one job.
type OrchestratorFactory func() *batch.Orchestrator
