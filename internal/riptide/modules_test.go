package riptide_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"riptide/internal/riptide"
	"riptide/internal/scripttest"
)

func TestRequireSelfCycle(t *testing.T) {
	result := scripttest.Run(t, scripttest.TestCase{
		Script: "require a",
		Modules: map[string]string{
			"a.rt": "def self (require a)\nexport self $self\nexport x 1\n",
		},
	})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}

	module, ok := result.Value.(*riptide.Table)
	if !ok {
		t.Fatalf("require returned %v, want a table", result.Value)
	}
	if got := module.Get("x"); !riptide.Equal(got, riptide.Number(1)) {
		t.Errorf("a.x = %v, want 1", got)
	}
	if got := module.Get("self"); !riptide.Equal(got, module) {
		t.Errorf("self-require returned %v, want the module's own table", got)
	}
}

func TestRequireIsIdempotent(t *testing.T) {
	result := scripttest.Run(t, scripttest.TestCase{
		Script: "def first (require counter)\ndef second (require counter)\nlist $first $second",
		Modules: map[string]string{
			"counter.rt": "println loaded\nexport n 1\n",
		},
	})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Stdout != "loaded\n" {
		t.Errorf("module body ran more than once: stdout %q", result.Stdout)
	}

	pair := result.Value.(riptide.List)
	if !riptide.Equal(pair[0], pair[1]) {
		t.Errorf("require returned different values: %v and %v", pair[0], pair[1])
	}
}

func TestRequireNotFound(t *testing.T) {
	rt := riptide.New(riptide.WithStdio(discardStdio()), riptide.WithLogger(discardLogger()))

	_, err := rt.Require("no-such-module")
	var exc *riptide.Exception
	if !errors.As(err, &exc) {
		t.Fatalf("expected an exception, got %v", err)
	}
	if exc.Kind != riptide.ModuleResolutionError {
		t.Errorf("kind = %v, want %v", exc.Kind, riptide.ModuleResolutionError)
	}
	if exc.Error() != "module not found: no-such-module" {
		t.Errorf("message = %q", exc.Error())
	}

	loaded := rt.Global("modules").(*riptide.Table).Get("loaded").(*riptide.Table)
	if loaded.Has("no-such-module") {
		t.Errorf("failed require left a cache entry")
	}
}

func TestRequireFailingModuleIsNotCached(t *testing.T) {
	rt := riptide.New(riptide.WithStdio(discardStdio()), riptide.WithLogger(discardLogger()))

	calls := 0
	rt.RegisterNativeModule("flaky", func(*riptide.Runtime) *riptide.Table {
		calls++
		return riptide.NewTable()
	})
	rt.RegisterLoader(riptide.NewFunction("broken", func(_ *riptide.Fiber, args []riptide.Value) (riptide.Value, error) {
		return riptide.Nil, riptide.Throwf("loader exploded for %s", args[0])
	}))

	if _, err := rt.Require("flaky"); err != nil {
		t.Fatalf("native module: %v", err)
	}

	_, err := rt.Require("other")
	if err == nil || err.Error() != "loader exploded for other" {
		t.Fatalf("expected loader exception, got %v", err)
	}
	loaded := rt.Global("modules").(*riptide.Table).Get("loaded").(*riptide.Table)
	if loaded.Has("other") {
		t.Errorf("placeholder not removed after loader exception")
	}
	if calls != 1 {
		t.Errorf("native module built %d times, want 1", calls)
	}
}

func TestConcurrentRequireLoadsOnce(t *testing.T) {
	rt := riptide.New(riptide.WithStdio(discardStdio()), riptide.WithLogger(discardLogger()))

	var calls atomic.Int32
	module := riptide.NewTableFrom(map[string]riptide.Value{"ok": riptide.Number(1)})
	rt.RegisterLoader(riptide.NewFunction("slow", func(_ *riptide.Fiber, args []riptide.Value) (riptide.Value, error) {
		if args[0].String() != "shared" {
			return riptide.Nil, nil
		}
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return module, nil
	}))

	if _, err := execWithDeadline(t, rt, "require shared | require shared | require shared"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("loader ran %d times, want 1", n)
	}

	v, err := rt.Require("shared")
	if err != nil {
		t.Fatalf("require: %v", err)
	}
	if !riptide.Equal(v, module) {
		t.Errorf("cached module = %v, want the loader's table", v)
	}
}

func TestCustomLoader(t *testing.T) {
	rt := riptide.New(riptide.WithStdio(discardStdio()), riptide.WithLogger(discardLogger()))

	rt.RegisterLoader(riptide.NewFunction("virtual", func(_ *riptide.Fiber, args []riptide.Value) (riptide.Value, error) {
		if args[0].String() != "virtual" {
			return riptide.Nil, nil
		}
		return riptide.NewTableFrom(map[string]riptide.Value{"answer": riptide.Number(42)}), nil
	}))

	v, err := rt.ExecuteString("", "def v (require virtual); list $v.answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !riptide.Equal(v, riptide.List{riptide.Number(42)}) {
		t.Errorf("value = %v, want [42]", v)
	}
}

func TestExportIntoNamedModule(t *testing.T) {
	rt := riptide.New(riptide.WithStdio(discardStdio()), riptide.WithLogger(discardLogger()))

	if _, err := rt.ExecuteString("greeting", "def word hello; export word\ndef f { export inner yes }; f"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	module, err := rt.Require("greeting")
	if err != nil {
		t.Fatalf("require: %v", err)
	}
	table := module.(*riptide.Table)
	if got := table.Get("word"); !riptide.Equal(got, riptide.String("hello")) {
		t.Errorf("word = %v, want hello", got)
	}
	if got := table.Get("inner"); !riptide.Equal(got, riptide.String("yes")) {
		t.Errorf("export from a nested closure = %v, want yes", got)
	}
}

func TestLangModule(t *testing.T) {
	t.Setenv("RIPTIDE_TEST_VAR", "")

	tests := []scripttest.TestCase{
		{
			Name:   "lang is requireable",
			Script: "def lang (require lang); lang.println $lang.VERSION",
			Stdout: riptide.Version,
		},
		{
			Name:   "read returns stdin",
			Script: "def s (read); println $s",
			Stdin:  "line",
			Stdout: "line",
		},
		{
			Name:   "env round trip",
			Script: "env RIPTIDE_TEST_VAR set; println (env RIPTIDE_TEST_VAR)",
			Stdout: "set",
		},
	}

	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			scripttest.RunScriptTest(t, tc)
		})
	}
}

func TestInclude(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.rt")
	if err := os.WriteFile(path, []byte("def from-include yes\n"), 0644); err != nil {
		t.Fatalf("Failed to write include file: %v", err)
	}

	result := scripttest.Run(t, scripttest.TestCase{
		Script: "include '" + path + "'\nlist $from-include",
	})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !riptide.Equal(result.Value, riptide.List{riptide.String("yes")}) {
		t.Errorf("value = %v, want [yes]", result.Value)
	}
}

func TestBacktrace(t *testing.T) {
	result := scripttest.Run(t, scripttest.TestCase{Script: "def f { backtrace }; f"})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}

	frames, ok := result.Value.(riptide.List)
	if !ok || len(frames) != 3 {
		t.Fatalf("backtrace = %v, want three frames", result.Value)
	}

	var names []string
	for _, frame := range frames {
		names = append(names, frame.(*riptide.Table).Get("name").String())
	}
	if want := []string{"f", "test.rt", "<global>"}; !slices.Equal(names, want) {
		t.Errorf("frame names = %v, want %v", names, want)
	}

	parent := frames[0].(*riptide.Table).Get("parent").(*riptide.Table)
	if got := parent.Get("name").String(); got != "test.rt" {
		t.Errorf("closure parent = %s, want test.rt", got)
	}
}
