package riptide

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Module state lives in the global "modules" table:
//
//	modules.loaders  list of functions taking a module name
//	modules.loaded   table of module name to exports, the require cache
//
// A loader returns Nil when it cannot find the module.

func newModuleRegistry(rt *Runtime) *Table {
	return NewTableFrom(map[string]Value{
		"loaders": List{
			NewFunction("relative-loader", rt.loadRelative),
			NewFunction("native-loader", rt.loadNative),
			NewFunction("path-loader", rt.loadFromPath),
		},
		"loaded": NewTable(),
	})
}

func (rt *Runtime) registry() (loaders List, loaded *Table, err error) {
	modules, ok := rt.globals.Get("modules").(*Table)
	if !ok {
		return nil, nil, invocationErrorf("modules table is missing")
	}
	loaded, ok = modules.Get("loaded").(*Table)
	if !ok {
		loaded = NewTable()
		modules.Set("loaded", loaded)
	}
	loaders, _ = modules.Get("loaders").(List)
	return loaders, loaded, nil
}

// RegisterLoader appends a loader function to modules.loaders.
func (rt *Runtime) RegisterLoader(loader Value) {
	modules, ok := rt.globals.Get("modules").(*Table)
	if !ok {
		return
	}
	loaders, _ := modules.Get("loaders").(List)
	next := make(List, 0, len(loaders)+1)
	next = append(append(next, loaders...), loader)
	modules.Set("loaders", next)
}

// RegisterNativeModule makes a Go module available to require under name.
func (rt *Runtime) RegisterNativeModule(name string, module NativeModule) {
	rt.nativesMu.Lock()
	defer rt.nativesMu.Unlock()

	rt.natives[name] = module
}

// moduleTable returns the exports table for a named module, creating and
// caching it if needed. An empty name gets a fresh anonymous table.
func (rt *Runtime) moduleTable(name string) *Table {
	if name == "" {
		return NewTable()
	}
	_, loaded, err := rt.registry()
	if err != nil {
		return NewTable()
	}

	rt.modulesMu.Lock()
	defer rt.modulesMu.Unlock()

	if t, ok := loaded.Get(name).(*Table); ok {
		return t
	}
	t := NewTable()
	loaded.Set(name, t)
	return t
}

// Require resolves a module by name, loading it on first use.
//
// While a module loads, modules.loaded holds a placeholder table for it, so
// a module that requires itself, directly or through others, gets that
// table back instead of recursing. File modules export into the
// placeholder, so the final value is the same table.
func (f *Fiber) Require(name string) (Value, error) {
	rt := f.rt
	loaders, loaded, err := rt.registry()
	if err != nil {
		return Nil, err
	}

	rt.modulesMu.Lock()
	if v := loaded.Get(name); !IsNil(v) {
		rt.modulesMu.Unlock()
		return v, nil
	}
	placeholder := NewTable()
	loaded.Set(name, placeholder)
	rt.modulesMu.Unlock()

	unload := func() {
		rt.modulesMu.Lock()
		defer rt.modulesMu.Unlock()

		if Equal(loaded.Get(name), placeholder) {
			loaded.Set(name, Nil)
		}
	}

	for _, loader := range loaders {
		v, err := f.Invoke(loader, []Value{String(name)})
		if err != nil {
			unload()
			return Nil, err
		}
		if IsNil(v) {
			continue
		}
		loaded.Set(name, v)
		rt.log.Debug("module loaded", slog.String("module", name), slog.String("loader", describe(loader)))
		return v, nil
	}

	unload()
	return Nil, &Exception{Value: String("module not found: " + name), Kind: ModuleResolutionError}
}

func (rt *Runtime) loadRelative(f *Fiber, args []Value) (Value, error) {
	name := stringArg(args, 0)
	if name == "" {
		return Nil, nil
	}
	path, ok := rt.findModuleFile(".", name)
	if !ok {
		return Nil, nil
	}
	return rt.loadFile(f, name, path)
}

func (rt *Runtime) loadFromPath(f *Fiber, args []Value) (Value, error) {
	name := stringArg(args, 0)
	if name == "" || filepath.IsAbs(name) {
		return Nil, nil
	}
	for _, dir := range rt.cfg.Modules.Path {
		if path, ok := rt.findModuleFile(dir, name); ok {
			return rt.loadFile(f, name, path)
		}
	}
	return Nil, nil
}

func (rt *Runtime) loadNative(_ *Fiber, args []Value) (Value, error) {
	rt.nativesMu.RLock()
	module, ok := rt.natives[stringArg(args, 0)]
	rt.nativesMu.RUnlock()

	if !ok {
		return Nil, nil
	}
	return module(rt), nil
}

// findModuleFile looks for name with and then without the module extension.
func (rt *Runtime) findModuleFile(dir, name string) (string, bool) {
	candidates := []string{name}
	if ext := rt.cfg.Modules.Extension; !strings.HasSuffix(name, ext) {
		candidates = []string{name + ext, name}
	}
	for _, c := range candidates {
		path := c
		if !filepath.IsAbs(c) {
			path = filepath.Join(dir, c)
		}
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// loadFile executes a script as module name. Exports go to the module's
// table in modules.loaded, which becomes the module value.
func (rt *Runtime) loadFile(f *Fiber, name, path string) (Value, error) {
	block, err := parseFile(path)
	if err != nil {
		return Nil, err
	}

	module := rt.moduleTable(name)
	scope := &Scope{
		Name:     name,
		Function: Nil,
		Bindings: NewTable(),
		Parent:   rt.global,
		Module:   module,
	}

	rt.log.Debug("loading module", slog.String("module", name), slog.String("path", path))
	if _, err := f.executeBlock(scope, block); err != nil {
		return Nil, err
	}
	return module, nil
}
