// Package apperror defines the error taxonomy shared by the pin pipeline
// and the HTTP layer. Handlers map sentinel errors to status codes; pipeline
// stages wrap them with stage-specific context.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a missing or invalid request field. Rejected
	// before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a pin that is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrRender marks a headless browser failure (network, timeout,
	// navigation). Aborts the pipeline; no pin persists.
	ErrRender = errors.New("render failed")

	// ErrFetch marks an unreachable remote image URL.
	ErrFetch = errors.New("fetch failed")

	// ErrDecode marks bytes that are not a supported image format.
	ErrDecode = errors.New("decode failed")

	// ErrExtraction marks HTML from which even the fallback path could not
	// produce an article.
	ErrExtraction = errors.New("extraction failed")

	// ErrEnrichment marks an AI analysis failure. Recoverable: the pin
	// persists with degraded data.
	ErrEnrichment = errors.New("enrichment failed")

	// ErrStorage marks an asset store write failure. Creation aborts and
	// rolls back; deletion logs and continues.
	ErrStorage = errors.New("storage failed")
)

// AppError carries a human-readable message alongside the sentinel
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation returns an AppError for a bad request field
func Validation(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// NotFound returns an AppError for a missing or foreign-owned resource
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Wrap attaches a sentinel and message to an underlying error
func Wrap(sentinel error, message string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", sentinel, cause),
		Message: message,
	}
}
