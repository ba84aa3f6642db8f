// Package errors provides structured error handling for notelink.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (notes, storage, locks)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, storage and lock errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts the whole run.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails one unit of work (one note); the run continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileRead           = "ERR_201_FILE_READ"
	ErrCodeFileWrite          = "ERR_202_FILE_WRITE"
	ErrCodeStorageUnavailable = "ERR_203_STORAGE_UNAVAILABLE"
	ErrCodeStorageCorrupt     = "ERR_204_STORAGE_CORRUPT"
	ErrCodeStorageRead        = "ERR_205_STORAGE_READ"
	ErrCodeWalkFailed         = "ERR_206_WALK_FAILED"
	ErrCodeVaultLocked        = "ERR_207_VAULT_LOCKED"
	ErrCodeStorageWrite       = "ERR_208_STORAGE_WRITE"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "203" from "ERR_203_STORAGE_UNAVAILABLE"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Storage failures and walk failures end the run; per-note IO does not.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStorageUnavailable, ErrCodeStorageRead, ErrCodeStorageWrite,
		ErrCodeWalkFailed, ErrCodeVaultLocked, ErrCodeConfigInvalid, ErrCodeInvalidPath:
		return SeverityFatal
	case ErrCodeStorageCorrupt:
		return SeverityWarning
	default:
		return SeverityError
	}
}
