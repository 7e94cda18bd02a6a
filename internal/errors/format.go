package errors

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// FormatForCLI renders err for the terminal: the message, a hint when one is
// known, and the code for coded errors.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var pe *PantryError
	if !errors.As(err, &pe) {
		return "Error: " + err.Error() + "\n"
	}

	var sb strings.Builder
	sb.WriteString("Error: " + pe.Message + "\n")
	if pe.Suggestion != "" {
		sb.WriteString("  Hint: " + pe.Suggestion + "\n")
	}
	sb.WriteString("  Code: " + pe.Code + "\n")
	return sb.String()
}

// LogAttr returns err as an "error" attribute. Coded errors become a group
// so the log viewer can filter on code and category.
func LogAttr(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}

	var pe *PantryError
	if !errors.As(err, &pe) {
		return slog.String("error", err.Error())
	}

	attrs := []any{
		slog.String("code", pe.Code),
		slog.String("message", pe.Message),
		slog.String("category", string(pe.Category)),
		slog.Bool("retryable", pe.Retryable),
	}
	if pe.Cause != nil {
		attrs = append(attrs, slog.String("cause", pe.Cause.Error()))
	}
	for _, k := range slices.Sorted(maps.Keys(pe.Details)) {
		attrs = append(attrs, slog.String(k, pe.Details[k]))
	}
	return slog.Group("error", attrs...)
}
