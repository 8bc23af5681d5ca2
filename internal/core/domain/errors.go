package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ingestion and drafting
// pipeline matches exactly one of these with errors.Is.
var (
	// ErrNotFound indicates a requested entity or input file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates an unreadable or corrupt file, or metadata
	// that cannot be coerced to scalar values.
	ErrValidation = errors.New("validation error")

	// ErrInfrastructure indicates a storage, index, embedding or
	// generation collaborator is unreachable or failing.
	ErrInfrastructure = errors.New("infrastructure error")

	// ErrGenerationTimeout indicates the generation call exceeded its bound.
	ErrGenerationTimeout = errors.New("generation timeout")
)

// Conditions that are not kinds of their own.
var (
	// ErrInvalidInput indicates malformed or invalid caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient marks a provider failure that may succeed on retry
	// (network errors, rate limiting, 5xx responses).
	ErrTransient = errors.New("transient failure")

	// ErrUnsupportedType indicates an unknown normaliser or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Drafting is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval falls back to keyword search only.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// Error carries an error kind together with the file or stage that failed.
type Error struct {
	// Kind is one of ErrNotFound, ErrValidation, ErrInfrastructure
	// or ErrGenerationTimeout.
	Kind error

	// Stage names the pipeline stage, e.g. "extract", "store", "generate".
	Stage string

	// Path is the offending file, when there is one.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	switch {
	case e.Path != "" && e.Stage != "":
		msg = fmt.Sprintf("%s: %s: %s", e.Stage, e.Path, e.Kind)
	case e.Path != "":
		msg = fmt.Sprintf("%s: %s", e.Path, e.Kind)
	case e.Stage != "":
		msg = fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	default:
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewNotFound reports a missing input file.
func NewNotFound(path string) error {
	return &Error{Kind: ErrNotFound, Stage: "extract", Path: path}
}

// NewValidation reports a file or metadata value that could not be parsed.
func NewValidation(path string, err error) error {
	return &Error{Kind: ErrValidation, Stage: "extract", Path: path, Err: err}
}

// NewInfrastructure reports a failing collaborator at the given stage.
func NewInfrastructure(stage string, err error) error {
	return &Error{Kind: ErrInfrastructure, Stage: stage, Err: err}
}

// NewGenerationTimeout reports a generation call that ran out of time.
func NewGenerationTimeout(err error) error {
	return &Error{Kind: ErrGenerationTimeout, Stage: "generate", Err: err}
}

// KindOf returns a stable short name for an error's kind, for CLI and
// MCP output. The outermost *Error decides; its cause is not consulted.
// Unknown errors report "error".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Kind != nil {
		err = de.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrGenerationTimeout):
		return "generation_timeout"
	case errors.Is(err, ErrInfrastructure):
		return "infrastructure"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
