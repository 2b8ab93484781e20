package riptide

// BuiltinFunc is the signature of a function implemented by the host.
type BuiltinFunc func(f *Fiber, args []Value) (Value, error)

// Global builtin dispatch table
var builtins = map[string]BuiltinFunc{
	// Variables
	"def":    builtinDef,
	"set":    builtinDef,
	"let":    builtinLet,
	"export": builtinExport,
	"args":   builtinArgs,

	// Control flow
	"call":  builtinCall,
	"throw": builtinThrow,
	"try":   builtinTry,

	// Modules
	"require": builtinRequire,
	"include": builtinInclude,

	// Values
	"nil":       builtinNil,
	"typeof":    builtinTypeof,
	"list":      builtinList,
	"nth":       builtinNth,
	"table":     builtinTable,
	"table-get": builtinTableGet,
	"table-set": builtinTableSet,

	// Introspection
	"backtrace": builtinBacktrace,
}

func installBuiltins(rt *Runtime) {
	for name, fn := range builtins {
		rt.globals.Set(name, NewFunction(name, fn))
	}
	rt.globals.Set("modules", newModuleRegistry(rt))
}

// stringArg returns args[i] if it is a string, or "".
func stringArg(args []Value, i int) string {
	if i < len(args) {
		if s, ok := args[i].(String); ok {
			return string(s)
		}
	}
	return ""
}

// arg returns args[i], or Nil when absent.
func arg(args []Value, i int) Value {
	if i < len(args) {
		return orNil(args[i])
	}
	return Nil
}

// Variables

func builtinDef(f *Fiber, args []Value) (Value, error) {
	name := stringArg(args, 0)
	if name == "" {
		return Nil, Throwf("variable name required")
	}
	f.BindEnclosing(name, arg(args, 1))
	return Nil, nil
}

func builtinLet(f *Fiber, args []Value) (Value, error) {
	name := stringArg(args, 0)
	if name == "" {
		return Nil, Throwf("variable name required")
	}
	f.BindLocal(name, arg(args, 1))
	return Nil, nil
}

func builtinExport(f *Fiber, args []Value) (Value, error) {
	name := stringArg(args, 0)
	if name == "" {
		return Nil, Throwf("variable name to export required")
	}

	value := arg(args, 1)
	if len(args) < 2 {
		value = f.Lookup(name)
	}

	f.Current().Module.Set(name, value)
	return Nil, nil
}

func builtinArgs(f *Fiber, _ []Value) (Value, error) {
	return append(List{}, f.Current().Args...), nil
}

// Control flow

func builtinCall(f *Fiber, args []Value) (Value, error) {
	if len(args) == 0 {
		return Nil, Throwf("block to invoke required")
	}
	callArgs, _ := arg(args, 1).(List)
	return f.Invoke(args[0], callArgs)
}

func builtinThrow(_ *Fiber, args []Value) (Value, error) {
	return Nil, Throw(arg(args, 0))
}

func builtinTry(f *Fiber, args []Value) (Value, error) {
	if len(args) < 1 {
		return Nil, Throwf("block to invoke required")
	}
	if len(args) < 2 {
		return Nil, Throwf("error block required")
	}

	v, err := f.Invoke(args[0], nil)
	if err != nil {
		exc := AsException(err)
		f.logger().Debug("caught exception", "kind", exc.Kind.String(), "value", exc.Value.String())
		return f.Invoke(args[1], []Value{exc.Value})
	}
	return v, nil
}

// Modules

func builtinRequire(f *Fiber, args []Value) (Value, error) {
	name := stringArg(args, 0)
	if name == "" {
		return Nil, Throwf("module name required")
	}
	return f.Require(name)
}

// builtinInclude evaluates a script file in the caller's scope, so its
// definitions become the caller's.
func builtinInclude(f *Fiber, args []Value) (Value, error) {
	path := stringArg(args, 0)
	if path == "" {
		return Nil, Throwf("file path required")
	}

	block, err := parseFile(path)
	if err != nil {
		return Nil, err
	}
	return f.evalStatements(block.Statements)
}

// Values

func builtinNil(*Fiber, []Value) (Value, error) {
	return Nil, nil
}

func builtinTypeof(_ *Fiber, args []Value) (Value, error) {
	if len(args) == 0 {
		return Nil, nil
	}
	return String(orNil(args[0]).TypeName()), nil
}

func builtinList(_ *Fiber, args []Value) (Value, error) {
	return append(List{}, args...), nil
}

func builtinNth(_ *Fiber, args []Value) (Value, error) {
	list, ok := arg(args, 0).(List)
	if !ok {
		return Nil, Throwf("first argument must be a list")
	}
	index, ok := arg(args, 1).(Number)
	if !ok {
		return Nil, Throwf("index must be a number")
	}

	i := int(index)
	if i < 0 || i >= len(list) {
		return Nil, nil
	}
	return orNil(list[i]), nil
}

func builtinTable(_ *Fiber, args []Value) (Value, error) {
	if len(args)%2 == 1 {
		return Nil, Throwf("an even number of arguments is required")
	}

	t := NewTable()
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(String)
		if !ok {
			return Nil, Throwf("table key must be a string")
		}
		t.Set(string(key), args[i+1])
	}
	return t, nil
}

func builtinTableGet(_ *Fiber, args []Value) (Value, error) {
	t, ok := arg(args, 0).(*Table)
	if !ok {
		return Nil, Throwf("first argument must be a table")
	}
	key, ok := arg(args, 1).(String)
	if !ok {
		return Nil, Throwf("key must be a string")
	}
	return t.Get(string(key)), nil
}

func builtinTableSet(_ *Fiber, args []Value) (Value, error) {
	t, ok := arg(args, 0).(*Table)
	if !ok {
		return Nil, Throwf("first argument must be a table")
	}
	key, ok := arg(args, 1).(String)
	if !ok {
		return Nil, Throwf("key must be a string")
	}
	t.Set(string(key), arg(args, 2))
	return Nil, nil
}

// Introspection

func builtinBacktrace(f *Fiber, _ []Value) (Value, error) {
	var frames List
	for scope := range f.Backtrace() {
		frames = append(frames, scope.table())
	}
	return frames, nil
}
