package records

import (
	"errors"
	"fmt"
)

// Sentinel error kinds (stable for errors.Is and for mapping to HTTP status codes).
var (
	ErrInvalidInput     = errors.New("invalid_input")
	ErrNotFound         = errors.New("not_found")
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// OpError is a typed operation error with a stable Op + Kind contract.
// Msg must not contain record values supplied by callers.
type OpError struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e OpError) Error() string {
	s := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the kind and the underlying cause.
func (e OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidInput reports whether err represents ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsStoreUnavailable reports whether err represents ErrStoreUnavailable.
func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }

func invalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

func notFound(op, resource string) error {
	return OpError{Op: op, Kind: ErrNotFound, Msg: resource}
}

func unavailable(op string, cause error) error {
	return OpError{Op: op, Kind: ErrStoreUnavailable, Err: cause}
}
