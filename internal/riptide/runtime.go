// Package riptide implements the riptide scripting runtime: values, scopes,
// the evaluator, pipelines, modules and the builtin functions.
package riptide

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"riptide/internal/config"
	"riptide/internal/stream"
	"riptide/internal/syntax"
)

// NativeModule builds the exports table of a module implemented in Go.
type NativeModule func(rt *Runtime) *Table

// Runtime owns the global scope, module registry and exit state shared by
// every fiber. A Runtime is safe for use by several pipeline stages at once,
// but host calls such as Execute must not overlap.
type Runtime struct {
	cfg     config.Config
	log     *slog.Logger
	stdio   stream.Stdio
	globals *Table
	global  *Scope
	main    *Fiber

	nativesMu sync.RWMutex
	natives   map[string]NativeModule

	// modulesMu makes the require cache check and placeholder insert one
	// step when stages require the same module concurrently.
	modulesMu sync.Mutex

	exitRequested atomic.Bool
	exitCode      atomic.Int32
}

type Option func(*Runtime)

func WithConfig(cfg config.Config) Option {
	return func(rt *Runtime) { rt.cfg = cfg }
}

func WithStdio(stdio stream.Stdio) Option {
	return func(rt *Runtime) { rt.stdio = stdio }
}

func WithLogger(log *slog.Logger) Option {
	return func(rt *Runtime) { rt.log = log }
}

// New creates a runtime with the builtin globals, the module registry and
// the lang, compress and process native modules installed.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		cfg:     config.Default(),
		log:     slog.Default(),
		stdio:   stream.OS(),
		globals: NewTable(),
		natives: make(map[string]NativeModule),
	}
	for _, opt := range opts {
		opt(rt)
	}

	rt.global = &Scope{
		Name:     "<global>",
		Function: Nil,
		Bindings: rt.globals,
		Module:   rt.globals,
	}
	rt.main = newFiber(rt, rt.stdio)

	installBuiltins(rt)
	rt.RegisterNativeModule("lang", langModule)
	rt.RegisterNativeModule("compress", compressModule)
	rt.RegisterNativeModule("process", processModule)

	// lang is also available without require.
	langModule(rt).Range(func(name string, v Value) bool {
		rt.globals.Set(name, v)
		return true
	})

	return rt
}

func (rt *Runtime) Config() config.Config { return rt.cfg }

func (rt *Runtime) Logger() *slog.Logger { return rt.log }

// Fiber returns the runtime's main fiber, on which host calls execute.
func (rt *Runtime) Fiber() *Fiber { return rt.main }

// Globals returns the global bindings table.
func (rt *Runtime) Globals() *Table { return rt.globals }

func (rt *Runtime) Global(name string) Value {
	return rt.globals.Get(name)
}

func (rt *Runtime) SetGlobal(name string, value Value) {
	rt.globals.Set(name, value)
}

// Execute parses src and evaluates it in a fresh scope whose parent is the
// global scope. A non-empty module name makes exports land in that module's
// table in modules.loaded.
func (rt *Runtime) Execute(module string, src *syntax.Source) (Value, error) {
	return rt.ExecuteInScope(module, src, NewTable())
}

// ExecuteInScope is like Execute but evaluates in the given bindings table,
// so several executions can share local variables.
func (rt *Runtime) ExecuteInScope(module string, src *syntax.Source, bindings *Table) (Value, error) {
	block, err := parse(src)
	if err != nil {
		return Nil, err
	}

	name := module
	if name == "" {
		name = src.DisplayName()
	}
	scope := &Scope{
		Name:     name,
		Function: Nil,
		Bindings: bindings,
		Parent:   rt.global,
		Module:   rt.moduleTable(module),
	}

	rt.log.Debug("execute", slog.String("source", src.DisplayName()))
	return rt.main.executeBlock(scope, block)
}

// ExecuteString evaluates script text.
func (rt *Runtime) ExecuteString(module, text string) (Value, error) {
	return rt.Execute(module, syntax.NewSource("<string>", text))
}

// ExecuteFile evaluates the script at path.
func (rt *Runtime) ExecuteFile(path string) (Value, error) {
	src, err := syntax.OpenSource(path)
	if err != nil {
		return Nil, AsException(err)
	}
	return rt.Execute("", src)
}

// Require loads a module on the main fiber.
func (rt *Runtime) Require(name string) (Value, error) {
	return rt.main.Require(name)
}

// Invoke calls fn on the main fiber.
func (rt *Runtime) Invoke(fn Value, args ...Value) (Value, error) {
	return rt.main.Invoke(fn, args)
}

// RequestExit asks the runtime to stop. Statement evaluation checks the flag
// and unwinds without raising an exception.
func (rt *Runtime) RequestExit(code int) {
	rt.exitCode.Store(int32(code))
	rt.exitRequested.Store(true)
}

func (rt *Runtime) ExitRequested() bool {
	return rt.exitRequested.Load()
}

// ExitCode returns the requested exit code, if exit was requested.
func (rt *Runtime) ExitCode() (int, bool) {
	if !rt.exitRequested.Load() {
		return 0, false
	}
	return int(rt.exitCode.Load()), true
}

// parse wraps syntax errors as parse exceptions.
func parse(src *syntax.Source) (*syntax.Block, error) {
	block, err := syntax.Parse(src)
	if err != nil {
		return nil, &Exception{
			Value: String("error parsing: " + err.Error()),
			Kind:  ParseError,
			cause: err,
		}
	}
	return block, nil
}

func parseFile(path string) (*syntax.Block, error) {
	src, err := syntax.OpenSource(path)
	if err != nil {
		return nil, AsException(err)
	}
	return parse(src)
}
