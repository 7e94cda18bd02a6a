package errors

import (
	"errors"
	"fmt"
	"strings"
)

// PantryError is the structured error type for pantry.
// It provides rich context for error handling, logging, and user presentation.
type PantryError struct {
	// Code is the unique error code (e.g., "ERR_603_NO_VERIFIED_CANDIDATES").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinel values for errors.Is checks. Matching is by code, so any
// PantryError carrying the same code satisfies errors.Is(err, ErrNoResults).
var (
	ErrInvalidInput         = &PantryError{Code: ErrCodeInvalidInput}
	ErrTransport            = &PantryError{Code: ErrCodeTransport}
	ErrNoCandidates         = &PantryError{Code: ErrCodeNoCandidates}
	ErrNoCommonCandidates   = &PantryError{Code: ErrCodeNoCommonCandidates}
	ErrNoVerifiedCandidates = &PantryError{Code: ErrCodeNoVerifiedCandidates}
	ErrNoResults            = &PantryError{Code: ErrCodeNoResults}
)

// Error implements the error interface.
func (e *PantryError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PantryError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *PantryError) Is(target error) bool {
	if t, ok := target.(*PantryError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PantryError) WithDetail(key, value string) *PantryError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *PantryError) WithSuggestion(suggestion string) *PantryError {
	e.Suggestion = suggestion
	return e
}

// Terms returns the ingredient terms recorded on an outcome error, in the
// order they were searched. Nil when the error carries no terms.
func (e *PantryError) Terms() []string {
	raw, ok := e.Details["terms"]
	if !ok || raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// New creates a new PantryError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *PantryError {
	return &PantryError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *PantryError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates a store or file I/O error.
func IOError(message string, cause error) *PantryError {
	return New(ErrCodeFileNotFound, message, cause)
}

// TransportError creates a recipe index transport error.
// Transport errors are retryable.
func TransportError(message string, cause error) *PantryError {
	return New(ErrCodeTransport, message, cause)
}

// StatusError creates an error for a non-success upstream HTTP status.
// Only server errors and throttling are retryable.
func StatusError(status int, body string) *PantryError {
	pe := New(ErrCodeUpstreamStatus, fmt.Sprintf("recipe index returned status %d", status), nil).
		WithDetail("status", fmt.Sprintf("%d", status)).
		WithDetail("body", body)
	pe.Retryable = status >= 500 || status == 429
	return pe
}

// InvalidInput creates a validation error. These never reach the network.
func InvalidInput(message string) *PantryError {
	return New(ErrCodeInvalidInput, message, nil)
}

// NoResults creates the empty-result error for single lookups.
func NoResults(message string) *PantryError {
	return New(ErrCodeNoResults, message, nil)
}

// NoCandidates reports that every per-term lookup came back empty.
func NoCandidates(terms []string) *PantryError {
	return outcome(ErrCodeNoCandidates, "no recipes found for any of the selected ingredients", terms).
		WithSuggestion("Try different combinations")
}

// NoCommonCandidates reports that candidates existed per term but no recipe
// was common to all of them.
func NoCommonCandidates(terms []string) *PantryError {
	return outcome(ErrCodeNoCommonCandidates,
		fmt.Sprintf("no recipe contains all %d ingredients (%s)", len(terms), strings.Join(terms, ", ")), terms)
}

// NoVerifiedCandidates reports that the intersection did not survive
// ingredient verification.
func NoVerifiedCandidates(terms []string) *PantryError {
	return outcome(ErrCodeNoVerifiedCandidates,
		fmt.Sprintf("no recipe verifiably uses all of: %s", strings.Join(terms, ", ")), terms).
		WithSuggestion("Remove an ingredient or try a more specific name")
}

func outcome(code, message string, terms []string) *PantryError {
	return New(code, message, nil).WithDetail("terms", strings.Join(terms, ","))
}

// IsRetryable checks if an error is retryable.
// Returns true if the error chain contains a PantryError with Retryable set.
func IsRetryable(err error) bool {
	var pe *PantryError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// IsFatal reports whether err leaves a store unusable until the user
// intervenes, such as a corrupt favorites file.
func IsFatal(err error) bool {
	var pe *PantryError
	if errors.As(err, &pe) {
		return pe.Severity == SeverityFatal
	}
	return false
}

// IsTransport reports whether err is a recipe index transport failure,
// including non-success statuses and an open circuit.
func IsTransport(err error) bool {
	return GetCategory(err) == CategoryNetwork
}

// GetCode extracts the error code from a PantryError.
// Returns empty string if not a PantryError.
func GetCode(err error) string {
	var pe *PantryError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// GetCategory extracts the category from a PantryError.
// Returns empty string if not a PantryError.
func GetCategory(err error) Category {
	var pe *PantryError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// IsOutcome reports whether err describes a completed search with no
// usable answer rather than a failure.
func IsOutcome(err error) bool {
	return GetCategory(err) == CategoryOutcome
}
