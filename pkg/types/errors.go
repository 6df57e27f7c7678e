package types

import "fmt"

// ErrorCode classifies a runner error.
type ErrorCode string

// Error codes for the conformance runner.
const (
	// Fatal at startup or load time: the run cannot proceed.
	ErrFixtureLoad      ErrorCode = "fixture-load"
	ErrCaseShape        ErrorCode = "case-shape"
	ErrSelectorParse    ErrorCode = "selector-parse"
	ErrConfig           ErrorCode = "config"
	ErrWalk             ErrorCode = "walk"
	ErrSubprocessLaunch ErrorCode = "subprocess-launch"
	ErrWasmCompile      ErrorCode = "wasm-compile"

	// Per-invocation: converted into reported outcomes, never fatal.
	ErrInvoke ErrorCode = "invoke"
)

// Error is a structured runner error.
type Error struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error
}

// NewError creates a new runner error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new runner error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithPath adds the file or command path the error relates to.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// IsFatal reports whether the error must abort the whole run.
// Per-case mismatches are not represented as errors at all; every
// coded error except ErrInvoke is fatal.
func (e *Error) IsFatal() bool {
	return e.Code != ErrInvoke
}
