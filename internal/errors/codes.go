// Package errors provides structured error handling for pantry.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (favorites store, files)
//   - 3XX: Network errors (recipe index transport)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//   - 6XX: Search outcomes (no candidates, no common candidates, ...)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and store I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates recipe index transport errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
	// CategoryOutcome indicates a search that completed without a usable answer.
	CategoryOutcome Category = "OUTCOME"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeStoreLocked    = "ERR_203_STORE_LOCKED"
	ErrCodeStoreWrite     = "ERR_204_STORE_WRITE"
	ErrCodeStoreCorrupt   = "ERR_205_STORE_CORRUPT"

	// Network errors (300-399)
	ErrCodeTransport      = "ERR_301_TRANSPORT"
	ErrCodeUpstreamStatus = "ERR_302_UPSTREAM_STATUS"
	ErrCodeCircuitOpen    = "ERR_303_CIRCUIT_OPEN"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeTooManyTerms = "ERR_402_TOO_MANY_TERMS"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeDecodeFailed   = "ERR_502_DECODE_FAILED"
	ErrCodeNilDependency  = "ERR_503_NIL_DEPENDENCY"
	ErrCodeNotImplemented = "ERR_504_NOT_IMPLEMENTED"

	// Search outcomes (600-699)
	ErrCodeNoCandidates         = "ERR_601_NO_CANDIDATES"
	ErrCodeNoCommonCandidates   = "ERR_602_NO_COMMON_CANDIDATES"
	ErrCodeNoVerifiedCandidates = "ERR_603_NO_VERIFIED_CANDIDATES"
	ErrCodeNoResults            = "ERR_604_NO_RESULTS"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "301" from "ERR_301_TRANSPORT")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	case '6':
		return CategoryOutcome
	default:
		return CategoryInternal
	}
}

// CategoryOf returns the category a code belongs to. Callers holding only a
// code string, such as a session snapshot, use it to classify.
func CategoryOf(code string) Category {
	return categoryFromCode(code)
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreCorrupt:
		return SeverityFatal
	case ErrCodeNoCommonCandidates:
		// Fallback results are still shown alongside the warning.
		return SeverityWarning
	case ErrCodeNoResults, ErrCodeNoCandidates:
		return SeverityInfo
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeTransport, ErrCodeUpstreamStatus:
		return true
	default:
		return false
	}
}
