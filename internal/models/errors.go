package models

import (
	"errors"
	"fmt"
)

var ErrTemplateNotFound = errors.New("template not found")

// UnsupportedKindError is returned for files that are neither image nor video.
type UnsupportedKindError struct {
	MimeType string
}

func (e *UnsupportedKindError) Error() string {
	if e.MimeType == "" {
		return "unsupported file type"
	}
	return fmt.Sprintf("unsupported file type: %s", e.MimeType)
}

// DecodeError is returned when image bytes cannot be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is returned when re-encoding produces no output.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to encode %s: empty output", e.Format)
	}
	return fmt.Sprintf("failed to encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// TranscodeError wraps a failed toolkit execution together with its
// diagnostic summary.
type TranscodeError struct {
	Diagnostic string
	Err        error
}

func (e *TranscodeError) Error() string {
	switch {
	case e.Diagnostic != "" && e.Err != nil:
		return fmt.Sprintf("transcode failed: %s (%v)", e.Diagnostic, e.Err)
	case e.Diagnostic != "":
		return "transcode failed: " + e.Diagnostic
	case e.Err != nil:
		return fmt.Sprintf("transcode failed: %v", e.Err)
	}
	return "transcode failed"
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// ToolkitLoadError is returned when the codec toolkit could not be
// initialized.
type ToolkitLoadError struct {
	Err error
}

func (e *ToolkitLoadError) Error() string {
	return fmt.Sprintf("failed to load codec toolkit: %v", e.Err)
}

func (e *ToolkitLoadError) Unwrap() error { return e.Err }
