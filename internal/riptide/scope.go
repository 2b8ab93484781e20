package riptide

// Scope is one activation record. Scopes form a tree through Parent: a
// closure keeps its defining scope alive after the call that created it has
// returned.
type Scope struct {
	Name     string
	Function Value   // Nil for file and module scopes
	Args     []Value // arguments the scope was invoked with
	Bindings *Table
	Parent   *Scope // nil only for the global scope
	Module   *Table // receives exported names
}

// Lookup resolves name through this scope and its ancestors.
func (s *Scope) Lookup(name string) Value {
	for scope := s; scope != nil; scope = scope.Parent {
		if v := scope.Bindings.Get(name); !IsNil(v) {
			return v
		}
	}
	return Nil
}

// IsFunctionScope reports whether the scope is a closure activation rather
// than a file or module scope.
func (s *Scope) IsFunctionScope() bool {
	return !IsNil(s.Function)
}

// table renders the scope for introspection, following parents recursively.
func (s *Scope) table() *Table {
	parent := Nil
	if s.Parent != nil {
		parent = s.Parent.table()
	}
	return NewTableFrom(map[string]Value{
		"name":     String(s.Name),
		"bindings": s.Bindings,
		"parent":   parent,
	})
}
