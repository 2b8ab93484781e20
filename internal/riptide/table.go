package riptide

import (
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
)

// Table is a mutable map from string keys to values, ordered by key. A
// *Table is a shared reference: every holder observes every mutation. Tables
// may be read and written from several pipeline stages at once.
type Table struct {
	mu      sync.RWMutex
	entries *treemap.Map
}

func NewTable() *Table {
	return &Table{entries: treemap.NewWithStringComparator()}
}

// NewTableFrom builds a table from a Go map, skipping Nil values.
func NewTableFrom(m map[string]Value) *Table {
	t := NewTable()
	for k, v := range m {
		t.Set(k, v)
	}
	return t
}

func (*Table) TypeName() string { return "table" }

func (t *Table) String() string {
	return fmt.Sprintf("<table@%p>", t)
}

// Get returns the value stored under key, or Nil.
func (t *Table) Get(key string) Value {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if v, ok := t.entries.Get(key); ok {
		return v.(Value)
	}
	return Nil
}

// Set stores value under key and returns the previous value or Nil. Setting
// Nil removes the key.
func (t *Table) Set(key string, value Value) Value {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := Nil
	if v, ok := t.entries.Get(key); ok {
		prev = v.(Value)
	}

	if IsNil(value) {
		t.entries.Remove(key)
	} else {
		t.entries.Put(key, value)
	}
	return prev
}

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.entries.Get(key)
	return ok
}

// Keys returns the keys in ascending order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, t.entries.Size())
	for _, k := range t.entries.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.entries.Size()
}

// Range calls fn for each entry in key order until fn returns false. It
// iterates over a snapshot, so fn may mutate the table.
func (t *Table) Range(fn func(key string, value Value) bool) {
	t.mu.RLock()
	keys := t.entries.Keys()
	values := t.entries.Values()
	t.mu.RUnlock()

	for i, k := range keys {
		if !fn(k.(string), values[i].(Value)) {
			return
		}
	}
}
