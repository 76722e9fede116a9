// Package perrors defines the error kinds every pterm component uses to
// signal daemon/bridge failures, matching the policy table in the session
// protocol design: each kind maps to one CLI exit code or one event-loop
// recovery action.
package perrors

import "errors"

// Kind classifies a pterm error into one of the documented recovery
// policies. Callers should use errors.As to recover a *Error and switch on
// Kind rather than comparing error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyRunning
	KindProtocol
	KindPtyIO
	KindClientIO
	KindChildExit
	KindSocketRemoved
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindAlreadyRunning:
		return "AlreadyRunning"
	case KindProtocol:
		return "ProtocolError"
	case KindPtyIO:
		return "PtyIo"
	case KindClientIO:
		return "ClientIo"
	case KindChildExit:
		return "ChildExit"
	case KindSocketRemoved:
		return "SocketRemoved"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a Kind so the CLI layer can pick an
// exit code and the event loop can pick a recovery action without string
// matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a *Error for op/kind wrapping err. err may be nil.
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// ExitCode maps a Kind to the CLI exit code documented for the CLI surface:
// 0 success, 1 user error, 2 not found, 3 already running, other I/O errors
// use 4.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return 1
	}
	switch pe.Kind {
	case KindNotFound:
		return 2
	case KindAlreadyRunning:
		return 3
	default:
		return 4
	}
}
