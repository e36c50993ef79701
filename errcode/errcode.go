// Package errcode holds the error kinds shared by the peripheral drivers.
package errcode

import "fmt"

// Code is a stable error identifier. It is a string newtype, comparable,
// and implements error.
type Code string

func (c Code) Error() string { return string(c) }

const (
	OK              Code = "ok"
	InvalidArgument Code = "invalid_argument"
	TypeConstraint  Code = "type_constraint"
	HardwareIO      Code = "hardware_io"

	Error Code = "error" // generic fallback
)

// E keeps the operation, a message and an optional cause next to a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is match an *E against its bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Invalid builds an InvalidArgument error for op.
func Invalid(op, format string, args ...any) error {
	return &E{C: InvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Type builds a TypeConstraint error for op.
func Type(op, format string, args ...any) error {
	return &E{C: TypeConstraint, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IO wraps a bus or pin fault. A nil err stays nil.
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: HardwareIO, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
