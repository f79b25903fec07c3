// Package observable provides a small publish/subscribe value container and
// read-only derived values computed from it.
//
// Set and Update notify subscribers synchronously, in registration order,
// after the lock is released. A subscriber that calls Set on the same value
// during notification recurses into another notification round; nothing
// guards against that.
package observable

import (
	"sync"

	"github.com/google/go-cmp/cmp"
)

// Readable is implemented by Value and Derived.
type Readable[T any] interface {
	// Get returns the current value.
	Get() T
	// Subscribe registers fn to run after every change. The returned function
	// removes the subscription and is safe to call more than once.
	Subscribe(fn func(T)) (unsubscribe func())

	version() uint64
}

// EqualFunc decides whether a new value differs from the current one.
type EqualFunc[T any] func(a, b T) bool

// Option configures a Value.
type Option[T any] func(*Value[T])

// WithEqual overrides the equality check used to suppress no-op updates.
func WithEqual[T any](eq EqualFunc[T]) Option[T] {
	return func(v *Value[T]) {
		v.equal = eq
	}
}

// Value is a mutable observable. Its zero value is not usable; call New.
type Value[T any] struct {
	mu      sync.RWMutex
	value   T
	ver     uint64
	equal   EqualFunc[T]
	subs    []*subscription[T]
	nextSub uint64
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// New returns a Value holding initial. Equality defaults to cmp.Equal, so T
// must either expose only exported fields or implement Equal.
func New[T any](initial T, opts ...Option[T]) *Value[T] {
	v := &Value[T]{
		value: initial,
		equal: func(a, b T) bool { return cmp.Equal(a, b) },
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set replaces the value and notifies subscribers when it changed.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	if v.equal(v.value, next) {
		v.mu.Unlock()
		return
	}
	v.value = next
	v.ver++
	subs := v.snapshotSubs()
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(next)
	}
}

// Update applies fn to the current value and stores the result. The read and
// write happen under one lock so concurrent Updates do not lose writes.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	next := fn(v.value)
	if v.equal(v.value, next) {
		v.mu.Unlock()
		return
	}
	v.value = next
	v.ver++
	subs := v.snapshotSubs()
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(next)
	}
}

// Subscribe registers fn. It is not called with the current value.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	v.nextSub++
	id := v.nextSub
	v.subs = append(v.subs, &subscription[T]{id: id, fn: fn})
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, s := range v.subs {
				if s.id == id {
					v.subs = append(v.subs[:i:i], v.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers reports how many subscriptions are registered.
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

func (v *Value[T]) version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ver
}

func (v *Value[T]) snapshotSubs() []*subscription[T] {
	subs := make([]*subscription[T], len(v.subs))
	copy(subs, v.subs)
	return subs
}
