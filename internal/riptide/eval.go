package riptide

import (
	"strings"

	"riptide/internal/syntax"
)

// Call runs the closure body in a new scope whose parent is the scope the
// block literal was evaluated in.
func (c *Closure) Call(f *Fiber, args []Value) (Value, error) {
	return f.invokeClosure("<closure>", c, args)
}

// Call runs the host function. Plain Go errors become host I/O exceptions.
func (ff *ForeignFunction) Call(f *Fiber, args []Value) (Value, error) {
	v, err := ff.Fn(f, args)
	if err != nil {
		return Nil, AsException(err)
	}
	return orNil(v), nil
}

// Invoke calls fn with args on this fiber.
func (f *Fiber) Invoke(fn Value, args []Value) (Value, error) {
	return f.invoke("", fn, args)
}

func (f *Fiber) invoke(name string, fn Value, args []Value) (Value, error) {
	switch callee := fn.(type) {
	case *Closure:
		if name == "" {
			name = "<closure>"
		}
		return f.invokeClosure(name, callee, args)
	case Callable:
		return callee.Call(f, args)
	}
	return Nil, invocationErrorf("cannot invoke %s as a function", describe(fn))
}

// invokeClosure runs c in a new scope. A closure built by the host without a
// defining scope runs against the global scope.
func (f *Fiber) invokeClosure(name string, c *Closure, args []Value) (Value, error) {
	parent := c.Scope
	if parent == nil {
		parent = f.rt.global
	}
	scope := &Scope{
		Name:     name,
		Function: c,
		Args:     append([]Value(nil), args...),
		Bindings: NewTable(),
		Parent:   parent,
		Module:   parent.Module,
	}
	for i, param := range c.Block.Params {
		if i < len(args) {
			scope.Bindings.Set(param, args[i])
		}
	}

	return f.executeBlock(scope, c.Block)
}

// executeBlock evaluates block in scope, which is pushed for the duration.
func (f *Fiber) executeBlock(scope *Scope, block *syntax.Block) (Value, error) {
	f.push(scope)
	defer f.pop()

	return f.evalStatements(block.Statements)
}

// evalStatements runs statements in order and returns the value of the last
// one. It stops early once the runtime has been asked to exit.
func (f *Fiber) evalStatements(statements []*syntax.Pipeline) (Value, error) {
	last := Nil
	for _, stmt := range statements {
		if f.rt.ExitRequested() {
			break
		}
		v, err := f.evalPipeline(stmt)
		if err != nil {
			return Nil, err
		}
		last = v
	}
	return last, nil
}

func (f *Fiber) evalPipeline(p *syntax.Pipeline) (Value, error) {
	if len(p.Calls) == 1 {
		return f.evalCall(p.Calls[0])
	}
	return f.runPipeline(p)
}

func (f *Fiber) evalCall(call syntax.Call) (Value, error) {
	var name string
	var fn Value

	switch c := call.(type) {
	case *syntax.NamedCall:
		name = c.Name()
		v, err := f.lookupPath(c.Path)
		if err != nil {
			return Nil, err
		}
		if IsNil(v) {
			return Nil, invocationErrorf("unknown command: %s", name)
		}
		fn = v
	case *syntax.UnnamedCall:
		v, err := f.evalExpr(c.Function)
		if err != nil {
			return Nil, err
		}
		fn = v
	default:
		return Nil, invocationErrorf("unsupported call %T", call)
	}

	args := make([]Value, 0, len(call.Arguments()))
	for _, expr := range call.Arguments() {
		v, err := f.evalExpr(expr)
		if err != nil {
			return Nil, err
		}
		args = append(args, v)
	}

	// A string in function position names the function to call.
	if s, ok := fn.(String); ok {
		name = string(s)
		v, err := f.lookupPath(splitName(name))
		if err != nil {
			return Nil, err
		}
		if IsNil(v) {
			return Nil, invocationErrorf("unknown command: %s", name)
		}
		fn = v
	}

	return f.invoke(name, fn, args)
}

func (f *Fiber) evalExpr(expr syntax.Expr) (Value, error) {
	switch e := expr.(type) {
	case *syntax.NumberLiteral:
		return Number(e.Value), nil
	case *syntax.StringLiteral:
		return String(e.Value), nil
	case *syntax.InterpolatedString:
		var sb strings.Builder
		for _, part := range e.Parts {
			v, err := f.evalExpr(part)
			if err != nil {
				return Nil, err
			}
			if !IsNil(v) {
				sb.WriteString(v.String())
			}
		}
		return String(sb.String()), nil
	case *syntax.Substitution:
		return f.lookupPath(e.Path)
	case *syntax.Block:
		return &Closure{Block: e, Scope: f.Current()}, nil
	case *syntax.Pipeline:
		return f.evalPipeline(e)
	}
	return Nil, invocationErrorf("cannot evaluate %T", expr)
}

func splitName(name string) []string {
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if p == "" {
			return []string{name}
		}
	}
	return parts
}
