package embedding

import (
	"errors"
	"fmt"
)

// Errors returned by the registry and models. Callers match them with errors.Is.
var (
	// ErrResourceNotFound is returned when a bundled model or tokenizer file is missing or unreadable.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrModelLoad is returned when a resource exists but cannot be turned into an encoder.
	ErrModelLoad = errors.New("model load failed")

	// ErrInference is returned when a text fails to encode.
	ErrInference = errors.New("inference failed")

	// ErrInvalidArgument is returned for nil dependencies or malformed arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrExecutorClosed is returned when work is submitted to a closed executor.
	ErrExecutorClosed = errors.New("executor closed")

	// ErrClosed is returned when a closed model is used.
	ErrClosed = errors.New("model closed")
)

// InferenceError reports which text of a batch failed to encode.
type InferenceError struct {
	Index int
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed for text %d: %v", e.Index, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInference) true for every InferenceError.
func (e *InferenceError) Is(target error) bool { return target == ErrInference }
