package observable

import (
	"sync"

	"github.com/google/go-cmp/cmp"
)

// Derived is a read-only value computed from another Readable. It recomputes
// lazily: Get only calls the selector when the upstream changed since the
// last computation.
type Derived[T any] struct {
	mu      sync.Mutex
	compute func() T
	src     interface{ version() uint64 }
	subFn   func(func()) func()
	equal   EqualFunc[T]
	cached  T
	cachedV uint64
	valid   bool
}

// Select derives a read-only observable from src through fn.
func Select[S, T any](src Readable[S], fn func(S) T) *Derived[T] {
	return &Derived[T]{
		compute: func() T { return fn(src.Get()) },
		src:     src,
		subFn: func(notify func()) func() {
			return src.Subscribe(func(S) { notify() })
		},
		equal: func(a, b T) bool { return cmp.Equal(a, b) },
	}
}

// SelectEqual is Select with a custom equality check for the derived value.
func SelectEqual[S, T any](src Readable[S], fn func(S) T, eq EqualFunc[T]) *Derived[T] {
	d := Select(src, fn)
	d.equal = eq
	return d
}

// Get returns the cached value, recomputing it when the upstream moved.
func (d *Derived[T]) Get() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getLocked()
}

func (d *Derived[T]) getLocked() T {
	ver := d.src.version()
	if d.valid && ver == d.cachedV {
		return d.cached
	}
	d.cached = d.compute()
	d.cachedV = ver
	d.valid = true
	return d.cached
}

// Subscribe registers fn to run when the derived value changes. Upstream
// changes that leave the derived value equal are not forwarded.
func (d *Derived[T]) Subscribe(fn func(T)) func() {
	d.mu.Lock()
	last := d.getLocked()
	d.mu.Unlock()

	var lastMu sync.Mutex
	return d.subFn(func() {
		d.mu.Lock()
		next := d.getLocked()
		d.mu.Unlock()

		lastMu.Lock()
		if d.equal(last, next) {
			lastMu.Unlock()
			return
		}
		last = next
		lastMu.Unlock()
		fn(next)
	})
}

func (d *Derived[T]) version() uint64 {
	return d.src.version()
}
