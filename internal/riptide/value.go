package riptide

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"riptide/internal/syntax"
)

// Value is a runtime value. The set of implementations is closed: NilValue,
// Number, String, List, *Table, *Closure and *ForeignFunction.
type Value interface {
	TypeName() string
	String() string
}

// Callable is a value that can be invoked with arguments.
type Callable interface {
	Value
	Call(f *Fiber, args []Value) (Value, error)
}

type NilValue struct{}

// Nil is the absence of a value.
var Nil Value = NilValue{}

func (NilValue) TypeName() string { return "nil" }
func (NilValue) String() string   { return "nil" }

type Number float64

func (Number) TypeName() string { return "number" }

func (n Number) String() string {
	f := float64(n)
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

type String string

func (String) TypeName() string { return "string" }
func (s String) String() string { return string(s) }

// List is an ordered sequence. Lists are not mutated after construction, so
// copies may share their backing array.
type List []Value

func (List) TypeName() string { return "list" }

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Closure is a block literal together with the scope it was evaluated in.
type Closure struct {
	Block *syntax.Block
	Scope *Scope
}

func (*Closure) TypeName() string { return "closure" }

func (c *Closure) String() string {
	return fmt.Sprintf("<closure@%p>", c)
}

// ForeignFunction is a function implemented by the host.
type ForeignFunction struct {
	Name string
	Fn   func(f *Fiber, args []Value) (Value, error)
}

// NewFunction wraps fn as a callable value.
func NewFunction(name string, fn func(f *Fiber, args []Value) (Value, error)) *ForeignFunction {
	return &ForeignFunction{Name: name, Fn: fn}
}

func (*ForeignFunction) TypeName() string { return "function" }

func (ff *ForeignFunction) String() string {
	return "<function " + ff.Name + ">"
}

// IsNil reports whether v is Nil. A nil interface counts as Nil.
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NilValue)
	return ok
}

// orNil maps a nil interface to Nil.
func orNil(v Value) Value {
	if v == nil {
		return Nil
	}
	return v
}

// Truthy reports whether v counts as true. Only Nil is false.
func Truthy(v Value) bool {
	return !IsNil(v)
}

// Equal compares scalars and lists by value and tables, closures and
// functions by identity.
func Equal(a, b Value) bool {
	a, b = orNil(a), orNil(b)
	switch x := a.(type) {
	case NilValue:
		return IsNil(b)
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Table:
		y, ok := b.(*Table)
		return ok && x == y
	case *Closure:
		y, ok := b.(*Closure)
		return ok && x == y
	case *ForeignFunction:
		y, ok := b.(*ForeignFunction)
		return ok && x == y
	}
	return false
}

// describe renders v for error messages, quoting strings.
func describe(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return orNil(v).String()
}
