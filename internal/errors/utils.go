package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating an *Error if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *Error {
	if err == nil {
		return nil
	}

	// Preserve location and context from an existing *Error
	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Type:      errType,
			Code:      code,
			Message:   message,
			Cause:     e,
			Context:   e.Context,
			Component: e.Component,
			FilePath:  e.FilePath,
			Line:      e.Line,
			Column:    e.Column,
		}
	}

	return &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeIO, code, message)
}

// WrapValidation wraps an error as a validation error
func WrapValidation(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeInternal, code, message)
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}

	return err.Error()
}

// GetErrorContext extracts context information from an *Error
func GetErrorContext(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		context := make(map[string]interface{})
		for k, v := range e.Context {
			context[k] = v
		}
		if e.Component != "" {
			context["component"] = e.Component
		}
		if e.FilePath != "" {
			context["file"] = e.FilePath
			if e.Line > 0 {
				context["line"] = e.Line
				if e.Column > 0 {
					context["column"] = e.Column
				}
			}
		}
		context["type"] = string(e.Type)
		context["code"] = e.Code
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}
