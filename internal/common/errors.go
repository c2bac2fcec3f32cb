package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. Every stage failure wraps exactly one of these so
// the serving layer can map a cause to a response without string matching.
var (
	ErrNotFound          = errors.New("input file not found")
	ErrCorruptDocument   = errors.New("unreadable document container")
	ErrNoExtractableText = errors.New("document has no extractable text")
	ErrOCRUnavailable    = errors.New("image ocr backend unavailable")
	ErrStructuring       = errors.New("structuring failed")
	ErrMalformedData     = errors.New("structured data does not match schema")
	ErrPersist           = errors.New("persistence failed")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps a pipeline error to a response status: extraction and
// structuring failures are client-visible input problems, persistence
// failures are server-side.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrCorruptDocument),
		errors.Is(err, ErrNoExtractableText),
		errors.Is(err, ErrOCRUnavailable),
		errors.Is(err, ErrStructuring),
		errors.Is(err, ErrMalformedData):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
