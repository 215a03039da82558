package middle

import (
	"errors"
	"fmt"

	"github.com/osm2pgsql/mid/pkg/osm"
)

// Code classifies a middle error for callers that branch on the failure
// kind rather than the message.
type Code int

const (
	CodeMissing Code = iota
	CodeInvalidID
	CodeOutOfOrder
	CodeCacheFull
	CodeIOError
	CodeGeometryInvalid
)

func (c Code) String() string {
	switch c {
	case CodeMissing:
		return "MISSING"
	case CodeInvalidID:
		return "INVALID_ID"
	case CodeOutOfOrder:
		return "OUT_OF_ORDER"
	case CodeCacheFull:
		return "CACHE_FULL"
	case CodeIOError:
		return "IO_ERROR"
	case CodeGeometryInvalid:
		return "GEOMETRY_INVALID"
	default:
		return "UNKNOWN"
	}
}

// Sentinel errors so callers can branch with errors.Is rather than
// comparing Code values or strings directly.
var (
	ErrMissing         = errors.New("middle: missing")
	ErrInvalidID       = errors.New("middle: invalid id")
	ErrOutOfOrder      = errors.New("middle: out of order")
	ErrCacheFull       = errors.New("middle: cache full")
	ErrIO              = errors.New("middle: i/o error")
	ErrGeometryInvalid = errors.New("middle: geometry invalid")
)

// Error is the concrete error type returned by middle operations that
// fail. Op names the operation (e.g. "way_get"); ID is the object under
// operation, where applicable.
type Error struct {
	Code Code
	Op   string
	ID   osm.ID
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("middle: %s id=%d: %s: %v", e.Op, e.ID, e.Code, e.Err)
	}
	return fmt.Sprintf("middle: %s id=%d: %s", e.Op, e.ID, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is implements errors.Is against the package's sentinel errors, keyed on
// Code rather than identity of Err.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeMissing:
		return target == ErrMissing
	case CodeInvalidID:
		return target == ErrInvalidID
	case CodeOutOfOrder:
		return target == ErrOutOfOrder
	case CodeCacheFull:
		return target == ErrCacheFull
	case CodeIOError:
		return target == ErrIO
	case CodeGeometryInvalid:
		return target == ErrGeometryInvalid
	default:
		return false
	}
}

func newError(code Code, op string, id osm.ID, err error) *Error {
	return &Error{Code: code, Op: op, ID: id, Err: err}
}
