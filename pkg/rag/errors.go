// FILE: pkg/rag/errors.go
// PURPOSE: Error taxonomy shared by every pipeline stage

package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a blank text reaches the embedding step.
	ErrEmptyInput = errors.New("empty input")

	// ErrNoResults is returned when the vector index yields zero hits.
	ErrNoResults = errors.New("no search results")
)

// ServiceError wraps a failed call to an external model or index backend.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns nil when err is nil so call sites can wrap unconditionally.
func NewServiceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Op: op, Err: err}
}

// LogSinkError is raised by an append-only sink. It never aborts a request.
type LogSinkError struct {
	Stream string
	Err    error
}

func (e *LogSinkError) Error() string {
	return fmt.Sprintf("log sink %s: %v", e.Stream, e.Err)
}

func (e *LogSinkError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err carries a ServiceError anywhere in its chain.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
