package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrScriptExecution indicates a runtime failure inside the script
	// itself, such as a type error or an undefined name.
	ErrScriptExecution = errors.New("script execution error")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrLimitExceeded indicates an execution limit was reached, such as
	// the maximum number of capability calls.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrTimeout indicates the submission exceeded its wall-clock
	// budget. No partial result accompanies it.
	ErrTimeout = errors.New("execution timeout")

	// ErrResolution indicates the script referenced a namespace or
	// operation not present in the registry snapshot.
	ErrResolution = errors.New("resolution failed")

	// ErrCapability indicates an underlying capability signaled a
	// structured failure.
	ErrCapability = errors.New("capability failed")
)

// ScriptError is a runtime failure inside the submitted script, with
// optional source location.
type ScriptError struct {
	// Message describes the failure.
	Message string

	// Line and Column are 1-based; zero means unknown.
	Line   int
	Column int

	// Err is the underlying error, if any.
	Err error
}

// Error returns the message, including line and column if available.
func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target. ScriptError matches
// ErrScriptExecution to allow sentinel-style checks.
func (e *ScriptError) Is(target error) bool {
	return target == ErrScriptExecution
}
