package services

import (
	"errors"

	"github.com/ersonp/pokecache/internal/domain/response"
)

// Failure kinds. A ResolutionError wraps exactly one of these.
var (
	// ErrValidation marks a malformed or empty identifier.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a Pokemon found neither in the store nor upstream.
	ErrNotFound = errors.New("pokemon not found")
	// ErrUpstream marks an external source failure other than not-found.
	ErrUpstream = errors.New("upstream failure")
)

// ResolutionError is a classified failure of a lookup operation.
type ResolutionError struct {
	Kind    error
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *ResolutionError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Detail returns the underlying cause, if any.
func (e *ResolutionError) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// StatusClassFor maps an error to its response status class.
func StatusClassFor(err error) response.StatusClass {
	switch {
	case err == nil:
		return response.StatusOK
	case errors.Is(err, ErrValidation):
		return response.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return response.StatusNotFound
	default:
		return response.StatusInternalError
	}
}

func validationError(message string) error {
	return &ResolutionError{Kind: ErrValidation, Message: message}
}

func notFoundError(message string, cause error) error {
	return &ResolutionError{Kind: ErrNotFound, Message: message, Err: cause}
}

func upstreamError(message string, cause error) error {
	return &ResolutionError{Kind: ErrUpstream, Message: message, Err: cause}
}
