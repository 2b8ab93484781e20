package riptide

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is reported by lang.VERSION.
const Version = "0.4.0"

const dumpDepth = 3

// langModule is the core standard library, also installed as globals.
func langModule(*Runtime) *Table {
	t := NewTable()
	t.Set("VERSION", String(Version))
	for name, fn := range map[string]BuiltinFunc{
		// Output
		"print":   langPrint,
		"println": langPrintln,
		"dump":    langDump,

		// Streams
		"cat":  langCat,
		"read": langRead,

		// Process
		"exit":   langExit,
		"assert": langAssert,
		"sleep":  langSleep,
		"env":    langEnv,
	} {
		t.Set(name, NewFunction(name, fn))
	}
	return t
}

func langPrint(f *Fiber, args []Value) (Value, error) {
	for _, a := range args {
		if _, err := io.WriteString(f.Stdout(), a.String()); err != nil {
			return Nil, err
		}
	}
	return Nil, nil
}

func langPrintln(f *Fiber, args []Value) (Value, error) {
	for _, a := range args {
		if _, err := io.WriteString(f.Stdout(), a.String()+"\n"); err != nil {
			return Nil, err
		}
	}
	return Nil, nil
}

func langDump(f *Fiber, args []Value) (Value, error) {
	var sb strings.Builder
	for _, a := range args {
		dumpValue(&sb, a, 0, dumpDepth)
	}
	_, err := io.WriteString(f.Stdout(), sb.String())
	return Nil, err
}

func dumpValue(sb *strings.Builder, v Value, indent, depth int) {
	pad := strings.Repeat(" ", indent)
	elided := func() {
		sb.WriteString(pad + "    ...\n")
	}

	switch v := v.(type) {
	case List:
		sb.WriteString(pad + "[\n")
		for _, item := range v {
			if depth > 0 {
				dumpValue(sb, item, indent+4, depth-1)
			} else {
				elided()
			}
		}
		sb.WriteString(pad + "]\n")
	case *Table:
		sb.WriteString(pad + "[\n")
		v.Range(func(key string, item Value) bool {
			fmt.Fprintf(sb, "%s    %q =>\n", pad, key)
			if depth > 0 {
				dumpValue(sb, item, indent+4, depth-1)
			} else {
				elided()
			}
			return true
		})
		sb.WriteString(pad + "]\n")
	default:
		sb.WriteString(pad + describe(v) + "\n")
	}
}

// langCat writes its arguments, or copies stdin to stdout when called
// without any.
func langCat(f *Fiber, args []Value) (Value, error) {
	if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		_, err := io.WriteString(f.Stdout(), strings.Join(parts, " "))
		return Nil, err
	}

	if _, err := io.Copy(f.Stdout(), f.Stdin()); err != nil {
		return Nil, err
	}
	return Nil, nil
}

// langRead returns all of stdin as a string.
func langRead(f *Fiber, _ []Value) (Value, error) {
	data, err := io.ReadAll(f.Stdin())
	if err != nil {
		return Nil, err
	}
	return String(data), nil
}

func langExit(f *Fiber, args []Value) (Value, error) {
	code := 0
	if n, ok := arg(args, 0).(Number); ok {
		code = int(n)
	}
	f.Runtime().RequestExit(code)
	return Nil, nil
}

func langAssert(_ *Fiber, args []Value) (Value, error) {
	if Truthy(arg(args, 0)) {
		return Nil, nil
	}
	if len(args) > 1 {
		return Nil, Throw(args[1])
	}
	return Nil, Throwf("assertion failed")
}

// langSleep accepts a Go duration string or a number of seconds.
func langSleep(_ *Fiber, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil, Throwf("sleep: requires exactly one argument")
	}

	var duration time.Duration
	switch v := args[0].(type) {
	case Number:
		duration = time.Duration(float64(v) * float64(time.Second))
	default:
		d, err := time.ParseDuration(v.String())
		if err != nil {
			seconds, err2 := strconv.ParseFloat(v.String(), 64)
			if err2 != nil {
				return Nil, Throwf("sleep: invalid duration: %v", err)
			}
			d = time.Duration(seconds * float64(time.Second))
		}
		duration = d
	}

	time.Sleep(duration)
	return Nil, nil
}

// langEnv lists, reads or sets environment variables depending on the
// number of arguments.
func langEnv(_ *Fiber, args []Value) (Value, error) {
	switch len(args) {
	case 0:
		env := NewTable()
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env.Set(k, String(v))
			}
		}
		return env, nil
	case 1:
		if v, ok := os.LookupEnv(args[0].String()); ok {
			return String(v), nil
		}
		return Nil, nil
	case 2:
		if err := os.Setenv(args[0].String(), args[1].String()); err != nil {
			return Nil, Throwf("env: %v", err)
		}
		return Nil, nil
	}
	return Nil, Throwf("env: requires 0, 1, or 2 arguments")
}
