package models

import "time"

// ShiftRequest carries the batch-wide settings, read once per run.
type ShiftRequest struct {
	Selection TemplateSelection `json:"selection"`
	AlterHash bool              `json:"alter_hash"`
}

type ProcessingJob struct {
	ID          string       `json:"id"`
	Request     ShiftRequest `json:"request"`
	Files       []SourceFile `json:"-"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt time.Time    `json:"completed_at,omitempty"`
	Results     []QueuedFile `json:"results,omitempty"`
	Error       string       `json:"error,omitempty"`
}

const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)
