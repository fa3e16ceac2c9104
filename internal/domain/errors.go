package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeRemoteCallFailure = "REMOTE_CALL_FAILURE"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeStreamInterrupted = "STREAM_INTERRUPTED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidChunkSize     = NewDomainError(ErrCodeValidation, "chunk size must be positive")
	ErrInvalidChunkOverlap  = NewDomainError(ErrCodeValidation, "chunk overlap must be >= 0 and < chunk size")
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrInvalidTopK          = NewDomainError(ErrCodeValidation, "top_k must be positive")
	ErrMisalignedIndexEntry = NewDomainError(ErrCodeValidation, "chunk and embedding lists must have the same length")
	ErrInvalidRole          = NewDomainError(ErrCodeValidation, "conversation role must be system, user, assistant, or tool")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotIndexed = NewDomainError(ErrCodeNotFound, "document has not been indexed")
)

// Remote call errors
var (
	ErrLLMNotConfigured    = NewDomainError(ErrCodeRemoteCallFailure, "llm provider not configured")
	ErrSearchNotConfigured = NewDomainError(ErrCodeRemoteCallFailure, "web search provider not configured")
)

// Stream errors
var (
	ErrStreamInterrupted = NewDomainError(ErrCodeStreamInterrupted, "response stream interrupted before completion")
)

// NewValidationError wraps a message in a validation DomainError
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// NewRemoteCallError wraps a provider failure in a remote-call DomainError
func NewRemoteCallError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeRemoteCallFailure, message, err)
}

// NewTimeoutError wraps a deadline failure in a timeout DomainError
func NewTimeoutError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeTimeout, message, err)
}
