package queue

import (
	"context"

	"github.com/phambaophuc/meta-shift/internal/models"
)

// processJob runs every file of job through a fresh orchestrator. File
// failures are part of the results; only a batch-level failure such as an
// unknown template is returned as an error.
func (q *QueueService) processJob(ctx context.Context, job *models.ProcessingJob) ([]models.QueuedFile, error) {
	o := q.newOrchestrator()
	for _, f := range job.Files {
		o.Add(f)
	}

	report, err := o.Run(ctx, job.Request)
	if err != nil {
		return nil, err
	}
	return report.Files, nil
}
