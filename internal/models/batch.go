package models

import "time"

// FileResult is the per-file outcome exposed to callers.
type FileResult struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       MediaKind  `json:"kind"`
	Status     FileStatus `json:"status"`
	TemplateID string     `json:"template_id,omitempty"`
	OutputName string     `json:"output_name,omitempty"`
	FileSize   int64      `json:"file_size,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// NewFileResult summarizes a queued file.
func NewFileResult(f QueuedFile) FileResult {
	return FileResult{
		ID:         f.ID,
		Name:       f.Original.Name,
		Kind:       f.Original.Kind,
		Status:     f.Status,
		TemplateID: f.TemplateID,
		OutputName: f.OutputName,
		FileSize:   int64(len(f.Processed)),
		Error:      f.Error,
	}
}

type BatchResponse struct {
	JobID       string       `json:"job_id"`
	Status      string       `json:"status"`
	Selection   string       `json:"selection"`
	AlterHash   bool         `json:"alter_hash"`
	Files       []FileResult `json:"files,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt time.Time    `json:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}
