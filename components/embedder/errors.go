package embedder

import (
	"errors"
	"fmt"
)

// Error kinds reported at the boundary. Every error returned by the
// pipeline matches exactly one of them with errors.Is.
var (
	// ErrValidation marks missing or malformed caller input
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks invalid chunking or model configuration
	ErrConfiguration = errors.New("configuration error")
	// ErrAlignment marks a tokenizer/model length mismatch.
	// It indicates a model and tokenizer version drift and is never retried.
	ErrAlignment = errors.New("alignment error")
	// ErrModelInference marks a failure inside the tokenizer or the model.
	// The operation is a pure function of its input and may be retried by the caller.
	ErrModelInference = errors.New("model inference error")
)

// ValidationError is returned before any model call when input is unusable
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigurationError reports an invalid chunk size, overlap or other setting
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s=%v %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// AlignmentError reports that the tokenizer offsets and the model output
// can not be zipped under the configured special-token layout.
type AlignmentError struct {
	Mode    Mode
	Layout  string
	Tokens  int
	Markers int
	Vectors int
	Reason  string
}

// Expected returns the number of vectors the layout requires
func (e *AlignmentError) Expected() int {
	return e.Tokens + e.Markers
}

func (e *AlignmentError) Error() string {
	msg := fmt.Sprintf("%s: %s layout %q expects %d vectors (%d tokens + %d markers), model returned %d",
		ErrAlignment, e.Mode, e.Layout, e.Expected(), e.Tokens, e.Markers, e.Vectors)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *AlignmentError) Is(target error) bool {
	return target == ErrAlignment
}

// ModelInferenceError wraps a tokenizer or model failure
type ModelInferenceError struct {
	Op  string
	Err error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrModelInference, e.Op, e.Err)
}

func (e *ModelInferenceError) Is(target error) bool {
	return target == ErrModelInference
}

func (e *ModelInferenceError) Unwrap() error {
	return e.Err
}

// InferenceError wraps err as a ModelInferenceError unless it already
// carries one of the error kinds.
func InferenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if ErrorKind(err) != KindInternal {
		return err
	}
	return &ModelInferenceError{Op: op, Err: err}
}

// Kind names an error class at the boundary
type Kind = string

const (
	KindValidation     Kind = "validation"
	KindConfiguration  Kind = "configuration"
	KindAlignment      Kind = "alignment"
	KindModelInference Kind = "model_inference"
	KindInternal       Kind = "internal"
)

// ErrorKind classifies err into one of the boundary kinds
func ErrorKind(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrAlignment):
		return KindAlignment
	case errors.Is(err, ErrModelInference):
		return KindModelInference
	default:
		return KindInternal
	}
}
