package settings

import (
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
)

// Entry binds a type and key to a store so callers can pass one value
// around instead of the triple.
type Entry[T any] struct {
	store *Store
	typ   Type[T]
	key   string
}

// Bind returns the Entry for key.
func Bind[T any](s *Store, typ Type[T], key string) Entry[T] {
	return Entry[T]{store: s, typ: typ, key: key}
}

func (e Entry[T]) Key() string { return e.key }

func (e Entry[T]) Observe() *observable.Derived[loadable.Loadable[*T]] {
	return Get(e.store, e.typ, e.key)
}

// Current returns the decoded value, or def when absent or not loaded.
func (e Entry[T]) Current(def T) T {
	v, err := Lookup(e.store, e.typ, e.key)
	if err != nil || v == nil {
		return def
	}
	return *v
}

func (e Entry[T]) Set(v T) error { return Set(e.store, e.typ, e.key, v) }

func (e Entry[T]) SetPartial(patch map[string]any) error {
	return SetPartial(e.store, e.typ, e.key, patch)
}

func (e Entry[T]) Update(fn func(T) T) error { return Update(e.store, e.typ, e.key, fn) }

func (e Entry[T]) Remove() { e.store.Remove(e.key, e.typ.Fields()...) }
