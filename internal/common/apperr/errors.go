// Package apperr defines the error taxonomy used across the swarm engine.
// Every error surfaced to a CLI caller or written to the structured log is
// expected to be, or wrap, an *AppError so callers can branch on Code
// without parsing message text.
package apperr

import "fmt"

// Code identifies the category of failure.
type Code string

const (
	CodeConfigError        Code = "config_error"
	CodeWorktreeError      Code = "worktree_error"
	CodeExecutionError     Code = "execution_error"
	CodeCommandFailed      Code = "command_failed"
	CodeCooperativeTimeout Code = "cooperative_timeout"
	CodeRestoreError       Code = "restore_error"
	CodeNotFound           Code = "not_found"
	CodeNotSupported       Code = "not_supported"
	CodeInvalidArgument    Code = "invalid_argument"
)

// AppError is the structured error type carried through the engine.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func new_(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ConfigError reports a malformed or invalid configuration document.
func ConfigError(message string, err error) *AppError {
	return new_(CodeConfigError, message, err)
}

// WorktreeError reports failure creating, validating, or tearing down a
// git worktree.
func WorktreeError(message string, err error) *AppError {
	return new_(CodeWorktreeError, message, err)
}

// ExecutionError reports a failure launching or communicating with an
// agent executor.
func ExecutionError(message string, err error) *AppError {
	return new_(CodeExecutionError, message, err)
}

// CommandFailed reports a subprocess that exited non-zero or could not
// be started.
func CommandFailed(message string, err error) *AppError {
	return new_(CodeCommandFailed, message, err)
}

// CooperativeTimeout reports a process that exited with status 143
// (128 + SIGTERM), i.e. it caught SIGTERM and shut down on its own.
func CooperativeTimeout(message string) *AppError {
	return new_(CodeCooperativeTimeout, message, nil)
}

// RestoreError reports a failure resuming a prior session.
func RestoreError(message string, err error) *AppError {
	return new_(CodeRestoreError, message, err)
}

// NotFound reports a missing session, worktree, or agent.
func NotFound(message string) *AppError {
	return new_(CodeNotFound, message, nil)
}

// NotSupported reports a feature unavailable on the current platform.
func NotSupported(message string) *AppError {
	return new_(CodeNotSupported, message, nil)
}

// InvalidArgument reports a caller-supplied value that failed validation.
func InvalidArgument(message string) *AppError {
	return new_(CodeInvalidArgument, message, nil)
}

// Wrap attaches additional context to an existing error without losing
// its AppError code, if any.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		return new_(ae.Code, message+": "+ae.Message, ae.Err)
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether err is an *AppError with the given code.
func Is(err error, code Code) bool {
	ae, ok := err.(*AppError)
	if !ok {
		return false
	}
	return ae.Code == code
}
