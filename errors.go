package rangego

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rangego/index"
	"github.com/hupe1980/rangego/pointcloud"
	"github.com/hupe1980/rangego/resource"
)

var (
	// ErrClosed is returned when an operation is attempted on a closed
	// engine.
	ErrClosed = errors.New("rangego: engine closed")

	// ErrQueryOutOfRange is returned when a query index does not name a
	// point of the dataset.
	ErrQueryOutOfRange = errors.New("rangego: query index out of range")
)

// ConfigError indicates an invalid engine or CLI configuration.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Option, e.Reason)
}

// SourceError indicates a point-cloud source that could not be opened or
// read.
//
// The original underlying error can be accessed via errors.Unwrap.
type SourceError struct {
	Source string
	cause  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Source, e.cause)
}

func (e *SourceError) Unwrap() error { return e.cause }

// IndexBuildError indicates a batch whose spatial index could not be
// built. Batch is negative when the failing batch is unknown.
//
// The original underlying error can be accessed via errors.Unwrap.
type IndexBuildError struct {
	Batch int
	cause error
}

func (e *IndexBuildError) Error() string {
	if e.Batch < 0 {
		return fmt.Sprintf("index build failed: %v", e.cause)
	}
	return fmt.Sprintf("index build failed: batch %d: %v", e.Batch, e.cause)
}

func (e *IndexBuildError) Unwrap() error { return e.cause }

// ResourceExhaustedError indicates that the resource controller refused
// an admission request.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ResourceExhaustedError struct {
	Phase     string
	Requested int64
	cause     error
}

func (e *ResourceExhaustedError) Error() string {
	msg := "resource limit exceeded"
	if e.Phase != "" {
		msg += " during " + e.Phase
	}
	if e.Requested > 0 {
		msg += fmt.Sprintf(" (%d bytes requested)", e.Requested)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ResourceExhaustedError) Unwrap() error { return e.cause }

// translateLoadError maps ingestion errors onto the facade taxonomy.
// Malformed rows and empty sources keep their parse-level types; anything
// else failed at the transport and becomes a *SourceError.
func translateLoadError(source string, err error) error {
	if err == nil {
		return nil
	}

	var mre *pointcloud.MalformedRowError
	if errors.As(err, &mre) {
		return err
	}
	if errors.Is(err, pointcloud.ErrEmptySource) {
		return err
	}

	return &SourceError{Source: source, cause: err}
}

// translateError maps lower-layer errors onto the facade taxonomy so
// callers only ever match rangego types. Errors the call sites already
// wrapped with phase or batch context pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Parse-level errors already are taxonomy types.
	var mre *pointcloud.MalformedRowError
	if errors.As(err, &mre) {
		return err
	}

	if errors.Is(err, resource.ErrMemoryLimit) {
		var ree *ResourceExhaustedError
		if errors.As(err, &ree) {
			return err
		}
		return &ResourceExhaustedError{cause: err}
	}

	if errors.Is(err, index.ErrNoPoints) || errors.Is(err, index.ErrInvalidRadius) {
		var ibe *IndexBuildError
		if errors.As(err, &ibe) {
			return err
		}
		return &IndexBuildError{Batch: -1, cause: err}
	}

	return err
}
