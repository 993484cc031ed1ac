package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/meta-shift/internal/models"
	"go.uber.org/zap"
)

// PublishJob enqueues a copy of job without blocking, so the caller keeps
// sole ownership of job. The job is visible through GetJob as pending right
// away.
func (q *QueueService) PublishJob(ctx context.Context, job *models.ProcessingJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.Status = models.JobPending
	job.CreatedAt = time.Now()

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	queued := *job
	q.storeJobResult(ctx, &queued)
	select {
	case q.jobs <- &queued:
	default:
		q.storage.DeleteFromCache(ctx, job.ID)
		return ErrQueueFull
	}

	q.logger.Info("Job published to queue",
		zap.String("job_id", job.ID),
		zap.Int("files", len(job.Files)))
	return nil
}

// GetJob returns the latest snapshot of a job.
func (q *QueueService) GetJob(ctx context.Context, id string) (*models.ProcessingJob, error) {
	job, err := q.storage.GetFromCache(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}
