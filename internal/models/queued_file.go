package models

import (
	"strings"
	"time"
)

type MediaKind string

const (
	KindImage        MediaKind = "image"
	KindVideo        MediaKind = "video"
	KindUnrecognized MediaKind = "unrecognized"
)

// KindFromMIME maps a declared MIME type to a media kind.
func KindFromMIME(mimeType string) MediaKind {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	}
	return KindUnrecognized
}

type FileStatus string

const (
	StatusIdle       FileStatus = "idle"
	StatusProcessing FileStatus = "processing"
	StatusDone       FileStatus = "done"
	StatusError      FileStatus = "error"
)

// Terminal reports whether s ends a run attempt.
func (s FileStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// SourceFile is the caller-owned input. Data is never mutated.
type SourceFile struct {
	Name     string    `json:"name"`
	MimeType string    `json:"mime_type"`
	Kind     MediaKind `json:"kind"`
	Size     int64     `json:"size"`
	Data     []byte    `json:"-"`
}

// QueuedFile is one entry in a batch.
type QueuedFile struct {
	ID          string     `json:"id"`
	Original    SourceFile `json:"original"`
	Processed   []byte     `json:"-"`
	Status      FileStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	Err         error      `json:"-"`
	TemplateID  string     `json:"template_id,omitempty"`
	OutputName  string     `json:"output_name,omitempty"`
	OutputMIME  string     `json:"output_mime,omitempty"`
	ProcessedAt time.Time  `json:"processed_at,omitempty"`
}

// HasOutput reports whether a successful transform stored output bytes.
func (f *QueuedFile) HasOutput() bool {
	return f.Status == StatusDone && f.Processed != nil
}
