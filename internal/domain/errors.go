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

// Error codes. Ingestion, provider, relevance, and storage errors form the
// pipeline taxonomy; callers branch on Code, never on message text.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeIngestion         = "INGESTION_ERROR"
	ErrCodeProvider          = "PROVIDER_ERROR"
	ErrCodeRelevanceMismatch = "RELEVANCE_MISMATCH"
	ErrCodeStorage           = "STORAGE_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrMissingChapterID     = NewDomainError(ErrCodeValidation, "chapter id is required")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Storage errors
var (
	ErrChapterNotFound = NewDomainError(ErrCodeNotFound, "no content loaded for this chapter")
	ErrStorageFailure  = NewDomainError(ErrCodeStorage, "chapter record could not be read")
)

// Ingestion errors
var (
	ErrDocumentUnreadable = NewDomainError(ErrCodeIngestion, "document could not be read")
	ErrDocumentTooShort   = NewDomainError(ErrCodeIngestion, "extracted text is too short to ingest")
)

// Provider errors
var (
	ErrProviderExhausted = NewDomainError(ErrCodeProvider, "all generation providers failed")
	ErrEmptyCompletion   = NewDomainError(ErrCodeProvider, "provider returned an empty completion")
)
