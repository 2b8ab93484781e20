package riptide

import (
	"io"
	"iter"
	"log/slog"

	"riptide/internal/stream"
)

// Fiber is one logical thread of execution: a stack of scopes plus the
// standard streams its commands read and write. The bottom of the stack is
// always the global scope. A Fiber must only be used by one goroutine at a
// time; pipelines fork a Fiber per stage.
type Fiber struct {
	rt    *Runtime
	stack []*Scope
	stdio stream.Stdio
}

func newFiber(rt *Runtime, stdio stream.Stdio) *Fiber {
	return &Fiber{rt: rt, stack: []*Scope{rt.global}, stdio: stdio}
}

// fork returns a Fiber with the same scope stack and different streams.
func (f *Fiber) fork(stdio stream.Stdio) *Fiber {
	stack := make([]*Scope, len(f.stack))
	copy(stack, f.stack)
	return &Fiber{rt: f.rt, stack: stack, stdio: stdio}
}

func (f *Fiber) Runtime() *Runtime { return f.rt }

func (f *Fiber) Stdin() io.Reader { return f.stdio.In }

func (f *Fiber) Stdout() io.Writer { return f.stdio.Out }

func (f *Fiber) Stderr() io.Writer { return f.stdio.Err }

func (f *Fiber) logger() *slog.Logger { return f.rt.log }

// Current returns the innermost scope.
func (f *Fiber) Current() *Scope {
	return f.stack[len(f.stack)-1]
}

// Depth returns the height of the scope stack.
func (f *Fiber) Depth() int {
	return len(f.stack)
}

// Lookup resolves a variable from the current scope outward. Unbound names
// resolve to Nil.
func (f *Fiber) Lookup(name string) Value {
	return f.Current().Lookup(name)
}

// lookupPath resolves name.key.key... Missing keys yield Nil; indexing into
// anything other than a table or Nil is an error.
func (f *Fiber) lookupPath(path []string) (Value, error) {
	value := f.Lookup(path[0])
	for i, key := range path[1:] {
		switch v := value.(type) {
		case *Table:
			value = v.Get(key)
		case NilValue:
			return Nil, nil
		default:
			return Nil, invocationErrorf("cannot index %s %s with %q", v.TypeName(), joinPath(path[:i+1]), key)
		}
	}
	return value, nil
}

// BindLocal sets name in the current scope.
func (f *Fiber) BindLocal(name string, value Value) {
	f.Current().Bindings.Set(name, value)
}

// BindEnclosing sets name in the scope enclosing the current function call,
// so a function body can define variables for the code around it. Outside
// of any function the current file or module scope is used.
func (f *Fiber) BindEnclosing(name string, value Value) {
	scope := f.Current()
	if scope.IsFunctionScope() && scope.Parent != nil {
		scope = scope.Parent
	}
	scope.Bindings.Set(name, value)
}

func (f *Fiber) push(scope *Scope) {
	f.stack = append(f.stack, scope)
	f.logger().Debug("push stack frame",
		slog.String("name", scope.Name),
		slog.Int("stack-size", len(f.stack)))
}

func (f *Fiber) pop() {
	if len(f.stack) <= 1 {
		panic("riptide: attempted to pop the global scope")
	}
	f.stack[len(f.stack)-1] = nil
	f.stack = f.stack[:len(f.stack)-1]
	f.logger().Debug("pop stack frame",
		slog.Int("stack-size", len(f.stack)))
}

// Backtrace yields the active scopes from the innermost outward. The
// sequence reflects the stack at the time each iteration starts and may be
// iterated again.
func (f *Fiber) Backtrace() iter.Seq[*Scope] {
	return func(yield func(*Scope) bool) {
		stack := f.stack
		for i := len(stack) - 1; i >= 0; i-- {
			if !yield(stack[i]) {
				return
			}
		}
	}
}
