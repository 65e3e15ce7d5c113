package errors

import (
	"fmt"
	"sync"
)

// Severity represents the severity of a diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Phase records which compilation stage produced a diagnostic.
type Phase string

const (
	PhasePreEmit Phase = "pre-emit"
	PhaseEmit    Phase = "emit"
)

// Diagnostic is a structured compiler message with severity and source location.
// Line is 1-based, Column is 0-based in bytes.
type Diagnostic struct {
	Severity Severity
	Phase    Phase
	// Origin names the producer: "resolve", "parse", "emit" or a plugin name.
	Origin   string
	File     string
	Line     int
	Column   int
	Length   int
	LineText string
	Message  string
	Notes    []string
}

// Error implements the error interface
func (d Diagnostic) Error() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
}

// CountSeverity returns how many diagnostics carry the given severity.
func CountSeverity(diagnostics []Diagnostic, severity Severity) int {
	n := 0
	for _, d := range diagnostics {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// ErrorCollector collects per-file failures from concurrent builds
type ErrorCollector struct {
	errors map[string]error
	order  []string
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make(map[string]error),
	}
}

// Add records the failure for a file. The first failure per file wins.
func (ec *ErrorCollector) Add(file string, err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if _, ok := ec.errors[file]; ok {
		return
	}
	ec.errors[file] = err
	ec.order = append(ec.order, file)
}

// Files returns the failed files in the order they were recorded
func (ec *ErrorCollector) Files() []string {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]string, len(ec.order))
	copy(result, ec.order)
	return result
}

// Get returns the failure recorded for a file
func (ec *ErrorCollector) Get(file string) (error, bool) {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	err, ok := ec.errors[file]
	return err, ok
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.order) > 0
}

// Count returns the number of failed files
func (ec *ErrorCollector) Count() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.order)
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = make(map[string]error)
	ec.order = ec.order[:0]
}
