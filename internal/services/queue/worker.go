package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/meta-shift/internal/models"
	"go.uber.org/zap"
)

// StartWorker consumes jobs until ctx is done or the queue is closed.
func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	q.logger.Info("Worker started", zap.Int("worker_id", workerID))
	q.consumers.Add(1)

	go func() {
		defer q.consumers.Add(-1)
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case job, ok := <-q.jobs:
				if !ok {
					q.logger.Info("Queue closed, worker exiting", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, job, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(ctx context.Context, job *models.ProcessingJob, workerID int) {
	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.Int("worker_id", workerID))

	job.Status = models.JobProcessing
	q.storeJobResult(ctx, job)

	results, err := q.runJob(ctx, job)
	job.Files = nil
	job.CompletedAt = time.Now()
	if err != nil {
		job.Status = models.JobFailed
		job.Error = err.Error()
		q.failed.Add(1)
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	} else {
		job.Status = models.JobCompleted
		job.Results = results
		q.processed.Add(1)
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID),
			zap.Int("files", len(results)))
	}

	q.storeJobResult(ctx, job)
}

// runJob turns a panic anywhere in the job into a job failure so the worker
// keeps consuming.
func (q *QueueService) runJob(ctx context.Context, job *models.ProcessingJob) (results []models.QueuedFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Job panicked",
				zap.String("job_id", job.ID),
				zap.Any("panic", r))
			results, err = nil, fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return q.processJob(ctx, job)
}

// storeJobResult publishes a copy so readers never see a job mid-update.
func (q *QueueService) storeJobResult(ctx context.Context, job *models.ProcessingJob) {
	snapshot := *job
	if err := q.storage.SetCache(ctx, &snapshot); err != nil {
		q.logger.Warn("Failed to store job result",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}
