package errors

import (
	"errors"
	"fmt"
)

// NewLintFailure reports a lint gate rejection for a component file.
func NewLintFailure(file string, errorCount, warningCount int) *Error {
	return (&Error{
		Type: ErrorTypeLint,
		Code: ErrCodeLintFailed,
		Message: fmt.Sprintf(
			"Linting reports %d errors and %d warnings in Riot components.",
			errorCount, warningCount,
		),
		FilePath: file,
	}).WithContext("errors", errorCount).WithContext("warnings", warningCount)
}

// NewCompileFailure reports compiler diagnostics for a component file.
func NewCompileFailure(file string, diagnostics []Diagnostic) *Error {
	return (&Error{
		Type: ErrorTypeCompile,
		Code: ErrCodeCompileFailed,
		Message: fmt.Sprintf(
			"TypeScript compiler reports %d errors in Riot Components.",
			len(diagnostics),
		),
		FilePath: file,
	}).WithContext("diagnostics", len(diagnostics))
}

// IsLintFailure checks if an error came from the lint gate.
func IsLintFailure(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeLint
	}

	return false
}

// IsCompileFailure checks if an error came from compiler diagnostics.
func IsCompileFailure(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeCompile
	}

	return false
}

// Counts returns the error/warning counts stored on a lint or compile failure.
func Counts(err error) (errorCount, warningCount int) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, 0
	}
	switch e.Type {
	case ErrorTypeLint:
		errorCount, _ = e.Context["errors"].(int)
		warningCount, _ = e.Context["warnings"].(int)
	case ErrorTypeCompile:
		errorCount, _ = e.Context["diagnostics"].(int)
	}
	return errorCount, warningCount
}
