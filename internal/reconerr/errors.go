// Package reconerr defines the error taxonomy shared by the scan
// orchestrator and its collaborators (spec §7): ConfigError, BindError,
// SendError, Timeout, and Fatal.
package reconerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for exit-code mapping (spec §6 exit codes).
type Kind int

const (
	KindConfig Kind = iota
	KindBind
	KindSend
	KindTimeout
	KindFatal
)

// Error wraps an underlying cause with a taxonomy Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Config wraps err as a ConfigError: invalid target, invalid port spec,
// unknown interface. Surfaced immediately; the run does not start.
func Config(op string, err error) *Error { return newErr(KindConfig, op, err) }

// Bind wraps err as a BindError: cannot open datalink channel or bind raw
// socket (missing privilege, unsupported OS feature). Surfaced immediately.
func Bind(op string, err error) *Error { return newErr(KindBind, op, err) }

// Send wraps err as a SendError: raw send failed. Non-fatal if sporadic;
// counted, logged at warn, and subsumed into the result.
func Send(op string, err error) *Error { return newErr(KindSend, op, err) }

// Timeout wraps err as a Timeout: expected per-probe, also
// allowed at the whole-run level. A normal terminal state.
func Timeout(op string, err error) *Error { return newErr(KindTimeout, op, err) }

// Fatal wraps err as a Fatal error: capture channel collapsed, interrupted
// by signal.
func Fatal(op string, err error) *Error { return newErr(KindFatal, op, err) }

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// ExitCode maps an error (or nil) to the spec §6 process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindConfig:
			return 2
		case KindBind:
			return 3
		case KindTimeout:
			return 4
		default:
			return 1
		}
	}
	return 1
}

var (
	// ErrNoResults indicates a timeout terminal state with nothing captured.
	ErrNoResults = errors.New("no results before timeout")
	// ErrInterfaceNotFound indicates the named interface does not exist.
	ErrInterfaceNotFound = errors.New("interface not found")
	// ErrChannelCollapsed indicates the capture channel terminated unexpectedly.
	ErrChannelCollapsed = errors.New("capture channel collapsed")
)
