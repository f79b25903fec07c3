package stores

import (
	"context"
	"fmt"

	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
)

// resource is one fetched value behind a Loadable observable.
type resource[T any] struct {
	name  string
	state *observable.Value[loadable.Loadable[T]]
}

func newResource[T any](name string) *resource[T] {
	return &resource[T]{name: name, state: observable.New(loadable.NotLoaded[T]())}
}

// load runs fetch and publishes the result. Subscribers are only notified
// when the value differs from what is already loaded. A failure replaces
// the state only when nothing was loaded yet; otherwise readers keep the
// stale value until the next success. Cancelled fetches change nothing.
func (r *resource[T]) load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	next, err := fetch(ctx)
	if err != nil {
		r.fail(ctx, err)
		return fmt.Errorf("fetch %s: %w", r.name, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.state.Set(loadable.Loaded(next))
	return nil
}

func (r *resource[T]) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	r.state.Update(func(cur loadable.Loadable[T]) loadable.Loadable[T] {
		if cur.IsLoaded() {
			return cur
		}
		return loadable.Failed[T](err)
	})
}

// update applies fn to the loaded value. It is a no-op before the first load.
func (r *resource[T]) update(fn func(T) T) {
	r.state.Update(func(cur loadable.Loadable[T]) loadable.Loadable[T] {
		return loadable.Map(cur, fn)
	})
}

func (r *resource[T]) reset() {
	r.state.Set(loadable.NotLoaded[T]())
}
