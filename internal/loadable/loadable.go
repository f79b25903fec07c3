// Package loadable represents asynchronously fetched values without panics.
//
// A Loadable is exactly one of NotLoaded, Loaded(value) or Failed(err).
// Stores replace a Loadable wholesale; it is never partially updated.
package loadable

import (
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// Tag identifies the active state of a Loadable.
type Tag int

const (
	TagNotLoaded Tag = iota
	TagLoaded
	TagFailed
)

func (t Tag) String() string {
	switch t {
	case TagLoaded:
		return "Loaded"
	case TagFailed:
		return "Failed"
	default:
		return "NotLoaded"
	}
}

// Loadable is a tri-state wrapper around a value of type T.
// The zero value is NotLoaded.
type Loadable[T any] struct {
	tag   Tag
	value T
	err   error
}

// NotLoaded returns a Loadable that has not been fetched yet.
func NotLoaded[T any]() Loadable[T] {
	return Loadable[T]{tag: TagNotLoaded}
}

// Loaded wraps a successfully fetched value.
func Loaded[T any](v T) Loadable[T] {
	return Loadable[T]{tag: TagLoaded, value: v}
}

// Failed wraps a fetch failure. A nil error is replaced by a generic one so
// that Err on a Failed loadable is never nil.
func Failed[T any](err error) Loadable[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Loadable[T]{tag: TagFailed, err: err}
}

// Tag reports which state is active.
func (l Loadable[T]) Tag() Tag { return l.tag }

func (l Loadable[T]) IsLoaded() bool    { return l.tag == TagLoaded }
func (l Loadable[T]) IsNotLoaded() bool { return l.tag == TagNotLoaded }
func (l Loadable[T]) IsFailed() bool    { return l.tag == TagFailed }

// Value returns the wrapped value and whether it is loaded.
func (l Loadable[T]) Value() (T, bool) {
	if l.tag != TagLoaded {
		var zero T
		return zero, false
	}
	return l.value, true
}

// Err returns the failure cause, or nil unless Failed.
func (l Loadable[T]) Err() error {
	if l.tag != TagFailed {
		return nil
	}
	return l.err
}

// Equal compares tags, loaded values (deeply) and failure messages.
// go-cmp picks this method up, so observables holding loadables compare
// without reaching into unexported fields.
func (l Loadable[T]) Equal(other Loadable[T]) bool {
	if l.tag != other.tag {
		return false
	}
	switch l.tag {
	case TagLoaded:
		return cmp.Equal(l.value, other.value)
	case TagFailed:
		if l.err == other.err {
			return true
		}
		return l.err.Error() == other.err.Error()
	default:
		return true
	}
}

func (l Loadable[T]) String() string {
	switch l.tag {
	case TagLoaded:
		return fmt.Sprintf("Loaded(%v)", l.value)
	case TagFailed:
		return fmt.Sprintf("Failed(%v)", l.err)
	default:
		return "NotLoaded"
	}
}

// Map applies fn when l is Loaded; NotLoaded and Failed pass through.
func Map[T, U any](l Loadable[T], fn func(T) U) Loadable[U] {
	switch l.tag {
	case TagLoaded:
		return Loaded(fn(l.value))
	case TagFailed:
		return Failed[U](l.err)
	default:
		return NotLoaded[U]()
	}
}

// FlatMap applies fn when l is Loaded and returns its result unchanged.
func FlatMap[T, U any](l Loadable[T], fn func(T) Loadable[U]) Loadable[U] {
	switch l.tag {
	case TagLoaded:
		return fn(l.value)
	case TagFailed:
		return Failed[U](l.err)
	default:
		return NotLoaded[U]()
	}
}

// GetOrElse returns the loaded value or def.
func GetOrElse[T any](def T, l Loadable[T]) T {
	if l.tag == TagLoaded {
		return l.value
	}
	return def
}

// Matcher holds one handler per state. Default catches any state without a
// dedicated handler.
type Matcher[T, R any] struct {
	Loaded    func(T) R
	NotLoaded func() R
	Failed    func(error) R
	Default   func() R
}

// Match dispatches on the active state. When neither a dedicated handler nor
// Default is set the zero value of R is returned.
func Match[T, R any](l Loadable[T], m Matcher[T, R]) R {
	switch l.tag {
	case TagLoaded:
		if m.Loaded != nil {
			return m.Loaded(l.value)
		}
	case TagFailed:
		if m.Failed != nil {
			return m.Failed(l.err)
		}
	default:
		if m.NotLoaded != nil {
			return m.NotLoaded()
		}
	}
	if m.Default != nil {
		return m.Default()
	}
	var zero R
	return zero
}

// All2 combines two loadables. The first Failed wins, then NotLoaded.
func All2[A, B, R any](a Loadable[A], b Loadable[B], fn func(A, B) R) Loadable[R] {
	if a.tag == TagFailed {
		return Failed[R](a.err)
	}
	if b.tag == TagFailed {
		return Failed[R](b.err)
	}
	if a.tag != TagLoaded || b.tag != TagLoaded {
		return NotLoaded[R]()
	}
	return Loaded(fn(a.value, b.value))
}
