// Package errors provides the error taxonomy shared by the auth and engine layers.
// Use errors.Is() with the sentinel values and errors.As() with *Error to inspect failures.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers that need to branch on it.
type Kind string

const (
	KindValidation   Kind = "ValidationError"
	KindNotFound     Kind = "NotFoundError"
	KindConflict     Kind = "ConflictError"
	KindAuthRequired Kind = "AuthRequiredError"
	KindAuthFlow     Kind = "AuthFlowError"
	KindNetwork      Kind = "NetworkError"
	KindState        Kind = "StateError"
	KindInternal     Kind = "InternalError"
)

// Sentinel errors, one per kind
var (
	// ErrValidation indicates missing or malformed input, detected before any side effect
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that a path, branch, commit or tag does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates merge/checkout conflicts or name collisions
	ErrConflict = errors.New("conflict")

	// ErrAuthRequired indicates a remote operation attempted without a token
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthFlow indicates that the OAuth flow failed, timed out or was cancelled
	ErrAuthFlow = errors.New("authentication flow failed")

	// ErrNetwork indicates a transport failure talking to a remote
	ErrNetwork = errors.New("network failure")

	// ErrState indicates an operation that is invalid in the current repository state
	ErrState = errors.New("invalid repository state")

	// ErrInternal indicates an unexpected failure of an underlying library
	ErrInternal = errors.New("internal error")
)

var sentinels = map[Kind]error{
	KindValidation:   ErrValidation,
	KindNotFound:     ErrNotFound,
	KindConflict:     ErrConflict,
	KindAuthRequired: ErrAuthRequired,
	KindAuthFlow:     ErrAuthFlow,
	KindNetwork:      ErrNetwork,
	KindState:        ErrState,
	KindInternal:     ErrInternal,
}

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is returns true if the target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// WithOp returns a copy of the error tagged with the given operation name
func (e *Error) WithOp(op string) *Error {
	cp := *e
	cp.Op = op
	return &cp
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewValidationError creates a ValidationError
func NewValidationError(format string, args ...any) *Error {
	return newError(KindValidation, nil, format, args...)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

// NewConflictError creates a ConflictError
func NewConflictError(format string, args ...any) *Error {
	return newError(KindConflict, nil, format, args...)
}

// NewAuthRequiredError creates an AuthRequiredError
func NewAuthRequiredError(format string, args ...any) *Error {
	return newError(KindAuthRequired, nil, format, args...)
}

// NewStateError creates a StateError
func NewStateError(format string, args ...any) *Error {
	return newError(KindState, nil, format, args...)
}

// NewAuthFlowError wraps a failure of the OAuth flow
func NewAuthFlowError(err error, format string, args ...any) *Error {
	return newError(KindAuthFlow, err, format, args...)
}

// NewNetworkError wraps a transport failure
func NewNetworkError(err error, format string, args ...any) *Error {
	return newError(KindNetwork, err, format, args...)
}

// Wrap classifies an arbitrary error under the given kind
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return newError(kind, err, format, args...)
}

// KindOf returns the kind of a classified error, or KindInternal for anything else
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an unclassified error with the given text.
func New(text string) error {
	return errors.New(text)
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// Output returns stdout and stderr joined, which is where git reports conflicts
func (e *GitCommandError) Output() string {
	return e.Stdout + "\n" + e.Stderr
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
