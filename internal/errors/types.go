// Package errors provides the structured error types used across riotts.
//
// Every fatal condition raised by the preprocessor (lint failures, compiler
// diagnostics, configuration problems) is an *Error carrying a type, a stable
// code and optional location/context so callers can classify failures with
// errors.As and the Is* helpers. Compiler and linter messages themselves are
// modelled as Diagnostic values.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeLint       ErrorType = "lint"
	ErrorTypeCompile    ErrorType = "compile"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error is a structured error type with context.
type Error struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Component string
	FilePath  string
	Line      int
	Column    int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *Error) WithLocation(filePath string, line, column int) *Error {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithComponent adds component context.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeSecurity,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeConfig
	}

	return false
}

// IsSecurityError checks if an error is security-related.
func IsSecurityError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeSecurity
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodeCommandInjection = "ERR_COMMAND_INJECTION"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeConfigLoad       = "ERR_CONFIG_LOAD"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeLintFailed       = "LINT_FAILED"
	ErrCodeCompileFailed    = "COMPILE_FAILED"
	ErrCodeLinterCrashed    = "ERR_LINTER"
	ErrCodeCheckerCrashed   = "ERR_CHECKER"
)

// FieldValidationError reports a single invalid configuration field.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []*FieldValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Errors = append(vec.Errors, NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToError converts the collection to a config *Error, or nil when empty.
func (vec *ValidationErrorCollection) ToError() *Error {
	if !vec.HasErrors() {
		return nil
	}

	messages := make([]string, 0, len(vec.Errors))
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.FieldName] = map[string]interface{}{
			"value":       err.FieldValue,
			"suggestions": err.HelpText,
		}
	}

	return &Error{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeValidationFailed,
		Message: strings.Join(messages, "; "),
		Context: context,
	}
}

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path string) *Error {
	return NewValidationError(ErrCodeInvalidPath, "invalid path: "+path)
}

// ErrCommandInjection creates a command injection security error.
func ErrCommandInjection(command string) *Error {
	return NewSecurityError(
		ErrCodeCommandInjection,
		"command injection attempt: "+command,
	)
}
