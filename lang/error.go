package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Each sub-kind of [ErrParse] also matches [ErrParse] with [errors.Is].
var (
	ErrParse         = NewError("parse error")
	ErrSyntax        = ErrParse.Kind("syntax error")
	ErrAssignTarget  = ErrParse.Kind("invalid assignment target")
	ErrInvalidDef    = ErrParse.Kind("invalid def")
	ErrDuplicateLang = ErrParse.Kind("already defined lang")
	ErrEmptyLang     = ErrParse.Kind("empty lang")
	ErrEmptyBody     = ErrParse.Kind("empty function body")
	ErrUnknownLang   = ErrParse.Kind("unknown lang")
	ErrInvalidArray  = ErrParse.Kind("invalid array element")
	ErrInvalidHash   = ErrParse.Kind("invalid hash entry")

	ErrUnboundName       = NewError("unbound name")
	ErrNotCallable       = NewError("value is not callable")
	ErrUnknownNode       = NewError("unknown node")
	ErrInternalInvariant = NewError("internal invariant violated")
	ErrBuiltin           = NewError("builtin failed")
	ErrMaxDepthExceeded  = NewError("maximum evaluation depth exceeded")
	ErrReadInput         = NewError("failed to read input")
	ErrUnformattable     = NewError("node has no source rendering")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg    string
	err    error       // Wrapped error (for errors.Unwrap)
	kind   *Error      // Sentinel this error was derived from
	parent *Error      // Broader sentinel, set only on sentinels
	pos    *Position   // Source position, if known
	attrs  []slog.Attr // Attributes for structured logging
	traced bool        // Evaluation trace already attached
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Kind creates a new sentinel that is a more specific form of e.
func (e *Error) Kind(msg string) *Error {
	return &Error{msg: msg, parent: e.origin()}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg> at <pos>: <err>" // all fields set
	//   2. "<msg>: <err>"          // no position
	//   3. "<msg>"                 // wrapped error is nil
	//   4. "<err>"                 // base error message is empty
	part := make([]string, 0, 2)

	if e.msg != "" {
		msg := e.msg
		if p := e.origin().parent; p != nil {
			msg = p.msg + ": " + msg
		}

		if e.pos != nil {
			msg += " at " + e.pos.String()
		}

		part = append(part, msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from, or any
// broader sentinel of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	for k := e.origin(); k != nil; k = k.parent {
		if k == t {
			return true
		}
	}

	return false
}

// Position returns the source position attached to e, if any.
func (e *Error) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}

	return *e.pos, true
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos != nil {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column),
		)
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.derive()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.derive()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}

// WithPosition records the source position at which the error occurred.
func (e *Error) WithPosition(pos Position) *Error {
	c := e.derive()
	c.pos = &pos

	return c
}

// withTrace attaches an evaluation trace snapshot once; later calls from
// enclosing frames leave the innermost snapshot untouched.
func (e *Error) withTrace(frames []string) *Error {
	if e.traced {
		return e
	}

	c := e.With(slog.Any("trace", frames))
	c.traced = true

	return c
}

func (e *Error) origin() *Error {
	if e.kind != nil {
		return e.kind
	}

	return e
}

func (e *Error) derive() *Error {
	return &Error{
		msg:    e.msg,
		err:    e.err,
		kind:   e.origin(),
		pos:    e.pos,
		attrs:  e.attrs, // Share attrs
		traced: e.traced,
	}
}

// Position identifies a location in source text. Line and Column are
// 1-based; Column counts bytes from the start of the unindented line.
type Position struct {
	Line   int
	Column int
}

// String returns the position formatted as "line L, column C".
func (p Position) String() string {
	return "line " + strconv.Itoa(p.Line) + ", column " + strconv.Itoa(p.Column)
}
