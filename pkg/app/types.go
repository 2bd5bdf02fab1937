package app

import (
	"fmt"
	"time"
)

// ImageTarget names the image and how to open it, shared by every command
type ImageTarget struct {
	Paths  []string
	Walker string
}

// Validate ensures an image was given
func (it *ImageTarget) Validate() error {
	if len(it.Paths) == 0 {
		return NewError(ErrCodeInvalidInput, "at least one image file is required", nil)
	}
	for _, p := range it.Paths {
		if p == "" {
			return NewError(ErrCodeInvalidInput, "image path must not be empty", nil)
		}
	}
	return nil
}

// String returns a string representation of the image target
func (it *ImageTarget) String() string {
	switch len(it.Paths) {
	case 0:
		return "no image"
	case 1:
		return "Image: " + it.Paths[0]
	default:
		return fmt.Sprintf("Image: %s (+%d segments)", it.Paths[0], len(it.Paths)-1)
	}
}

// ProgressUpdate describes how far a command has got
type ProgressUpdate struct {
	Message     string
	Completed   int64
	Total       int64
	StartedAt   time.Time
	ElapsedTime time.Duration
}

// Percent calculates completion percentage
func (p *ProgressUpdate) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int((p.Completed * 100) / p.Total)
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeImageAccess  = "IMAGE_ACCESS"
	ErrCodeWalkFailed   = "WALK_FAILED"
	ErrCodeExportFailed = "EXPORT_FAILED"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
