package riptide

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies where an exception came from. Every kind travels the
// same way and can be caught by try.
type ErrorKind int

const (
	UserException ErrorKind = iota
	InvocationError
	ModuleResolutionError
	ParseError
	HostIOError
)

func (k ErrorKind) String() string {
	switch k {
	case UserException:
		return "exception"
	case InvocationError:
		return "invocation error"
	case ModuleResolutionError:
		return "module resolution error"
	case ParseError:
		return "parse error"
	case HostIOError:
		return "io error"
	default:
		return "unknown error"
	}
}

// Exception is a propagating failure carrying an arbitrary value.
type Exception struct {
	Value Value
	Kind  ErrorKind
	cause error
}

// Throw creates a user exception carrying v.
func Throw(v Value) *Exception {
	return &Exception{Value: orNil(v), Kind: UserException}
}

// Throwf creates a user exception whose payload is a formatted string.
func Throwf(format string, args ...any) *Exception {
	return Throw(String(fmt.Sprintf(format, args...)))
}

func invocationErrorf(format string, args ...any) *Exception {
	return &Exception{Value: String(fmt.Sprintf(format, args...)), Kind: InvocationError}
}

func (e *Exception) Error() string {
	return e.Value.String()
}

func (e *Exception) Unwrap() error {
	return e.cause
}

// AsException converts any error into an exception. Exceptions are returned
// unchanged; other errors are treated as host I/O failures.
func AsException(err error) *Exception {
	if err == nil {
		return nil
	}
	var exc *Exception
	if errors.As(err, &exc) {
		return exc
	}
	return &Exception{Value: String(err.Error()), Kind: HostIOError, cause: err}
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}
