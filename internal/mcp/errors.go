// Package mcp exposes pantry's search, detail, random and favorites
// operations as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/session"
)

// Custom MCP error codes for pantry.
const (
	// ErrCodeNoRecipes indicates a search or lookup completed without a usable answer.
	ErrCodeNoRecipes = -32010

	// ErrCodeUpstream indicates the recipe index could not be reached.
	ErrCodeUpstream = -32011

	// ErrCodeStore indicates the favorites store failed.
	ErrCodeStore = -32012

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Reason is the pantry error code, when one applies.
	Reason string `json:"reason,omitempty"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var pe *perrors.PantryError
	if errors.As(err, &pe) {
		message := pe.Message
		if pe.Suggestion != "" {
			message = fmt.Sprintf("%s %s", pe.Message, pe.Suggestion)
		}
		return &MCPError{Code: codeFor(pe.Code), Message: message, Reason: pe.Code}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// snapshotError reports a failed coordinator call, keeping its user message.
func snapshotError(snap session.Snapshot) *MCPError {
	if snap.Error == "" {
		return nil
	}
	return &MCPError{Code: codeFor(snap.ErrorCode), Message: snap.Error, Reason: snap.ErrorCode}
}

func codeFor(code string) int {
	switch perrors.CategoryOf(code) {
	case perrors.CategoryOutcome:
		return ErrCodeNoRecipes
	case perrors.CategoryValidation:
		return ErrCodeInvalidParams
	case perrors.CategoryNetwork:
		return ErrCodeUpstream
	case perrors.CategoryIO:
		return ErrCodeStore
	default:
		return ErrCodeInternalError
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}
