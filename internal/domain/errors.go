package domain

import "fmt"

// ErrorKind categorizes the pipeline's non-fatal failure modes. Every kind
// degrades to a safe default; nothing inside the pipeline aborts a turn.
type ErrorKind string

const (
	// ErrorKindValidationRejected means the input did not pass the validator
	// and the user should be asked to rephrase.
	ErrorKindValidationRejected ErrorKind = "validation_rejected"

	// ErrorKindExtractionFailed means the LLM extraction call errored and the
	// turn proceeded with regex-only filters.
	ErrorKindExtractionFailed ErrorKind = "extraction_failed"

	// ErrorKindPersistenceUnavailable means the session store write or read
	// failed and the in-memory session stayed authoritative.
	ErrorKindPersistenceUnavailable ErrorKind = "persistence_unavailable"

	// ErrorKindAmbiguousDomain means no domain could be resolved and the
	// caller must ask for a category.
	ErrorKindAmbiguousDomain ErrorKind = "ambiguous_domain"
)

// PipelineError carries a kind alongside the underlying cause so callers get
// exactly one visible branch per failure mode instead of a swallowed catch-all.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError creates a pipeline error of the given kind.
func NewPipelineError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}
