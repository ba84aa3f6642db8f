package errors

import (
	stderrors "errors"
	"fmt"
)

// NotelinkError is the structured error type for notelink.
// It carries enough context (code, path details) for an operator to diagnose a failure.
type NotelinkError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_READ").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *NotelinkError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *NotelinkError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with NotelinkError.
func (e *NotelinkError) Is(target error) bool {
	if t, ok := target.(*NotelinkError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *NotelinkError) WithDetail(key, value string) *NotelinkError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *NotelinkError) WithSuggestion(suggestion string) *NotelinkError {
	e.Suggestion = suggestion
	return e
}

// New creates a new NotelinkError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *NotelinkError {
	return &NotelinkError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a NotelinkError from an existing error.
// The error's message becomes the NotelinkError message.
func Wrap(code string, err error) *NotelinkError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *NotelinkError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InvalidPath reports a vault path that does not exist or is not a directory.
func InvalidPath(path string, cause error) *NotelinkError {
	return New(ErrCodeInvalidPath, "vault directory not found", cause).
		WithDetail("path", path).
		WithSuggestion("Pass the path of an existing vault directory")
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *NotelinkError {
	return New(ErrCodeInternal, message, cause)
}

// StorageUnavailable reports a document store that cannot be opened or created.
func StorageUnavailable(path string, cause error) *NotelinkError {
	return New(ErrCodeStorageUnavailable, "document store unavailable", cause).
		WithDetail("path", path)
}

// StorageReadFailure reports a failure loading documents from the store.
func StorageReadFailure(cause error) *NotelinkError {
	return New(ErrCodeStorageRead, "failed to load documents", cause)
}

// StorageWriteFailure reports a failure persisting documents to the store.
func StorageWriteFailure(cause error) *NotelinkError {
	return New(ErrCodeStorageWrite, "failed to store documents", cause)
}

// FileReadFailure reports a note that could not be read.
func FileReadFailure(path string, cause error) *NotelinkError {
	return New(ErrCodeFileRead, "failed to read note", cause).WithDetail("path", path)
}

// FileWriteFailure reports a note that could not be rewritten.
func FileWriteFailure(path string, cause error) *NotelinkError {
	return New(ErrCodeFileWrite, "failed to write note", cause).WithDetail("path", path)
}

// WalkFailed reports a vault walk that could not complete.
func WalkFailed(root string, cause error) *NotelinkError {
	return New(ErrCodeWalkFailed, "failed to walk vault", cause).WithDetail("path", root)
}

// VaultLocked reports that another run holds the vault lock.
func VaultLocked(lockPath string) *NotelinkError {
	return New(ErrCodeVaultLocked, "another notelink run is in progress for this vault", nil).
		WithDetail("lock", lockPath).
		WithSuggestion("Wait for the other run to finish")
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current run.
func IsFatal(err error) bool {
	var ne *NotelinkError
	if stderrors.As(err, &ne) {
		return ne.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a NotelinkError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ne *NotelinkError
	if stderrors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

// Path returns the "path" detail of a NotelinkError, if any.
func Path(err error) string {
	var ne *NotelinkError
	if stderrors.As(err, &ne) && ne.Details != nil {
		return ne.Details["path"]
	}
	return ""
}
