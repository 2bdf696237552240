package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/xwiki/ids"
	"github.com/celements/wikibridge/xwiki/store"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // what failed, e.g. "save document"
	Cause       string   // short description of the cause
	Details     string   // technical details
	Suggestions []string // hints for the user
	Underlying  error
}

func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}
	return msg.String()
}

func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewReferenceError creates an error for strings that do not resolve.
func NewReferenceError(operation, value string, underlying error) *CLIError {
	return &CLIError{
		Operation:  operation,
		Cause:      fmt.Sprintf("invalid reference %q", value),
		Details:    errorDetails(underlying),
		Underlying: underlying,
		Suggestions: []string{
			"Use wiki:Space.Page for documents, wiki:Space for spaces",
			"Escape '.', ':' and '@' inside names with a backslash",
		},
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewStoreError turns store failures into user facing errors.
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "store operation failed"
	var saveErr *store.SaveError
	switch {
	case errors.Is(underlying, store.ErrNotFound):
		cause = "document not found"
		suggestions = append(suggestions, "Run 'wikibridge doc ls' to see stored documents")
	case errors.Is(underlying, store.ErrIDCollision):
		cause = "no free document id left for this reference"
	case errors.Is(underlying, ids.ErrNoSuchElement):
		cause = "document id space exhausted"
	case errors.As(underlying, &saveErr):
		cause = "document rejected"
	case underlying != nil:
		errStr := strings.ToLower(underlying.Error())
		switch {
		case strings.Contains(errStr, "permission denied"):
			cause = "insufficient permissions to access the store"
		case strings.Contains(errStr, "database is locked"), strings.Contains(errStr, "failed to acquire lock"):
			cause = "store is currently locked by another process"
		}
	}
	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     errorDetails(underlying),
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}

// NewTypeError creates an error for unknown entity type names.
func NewTypeError(operation, typeName string) *CLIError {
	var names []string
	for _, t := range reference.EntityTypes() {
		names = append(names, strings.ToLower(t.String()))
	}
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("unknown entity type %q", typeName),
		Suggestions: []string{"Valid types: " + strings.Join(names, ", ")},
	}
}

func errorDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
