package stores

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
	"github.com/five82/mlconsole/internal/polling"
)

// Users caches every account plus the signed-in one.
type Users struct {
	api     api.ResourceAPI
	users   *resource[map[int]api.User]
	current *resource[api.User]
	poller  *polling.Poller
}

func newUsers(client api.ResourceAPI, newPoller pollerFactory) *Users {
	u := &Users{
		api:     client,
		users:   newResource[map[int]api.User]("users"),
		current: newResource[api.User]("current user"),
	}
	u.poller = newPoller("users", func(ctx context.Context, _ ...any) error {
		return errors.Join(u.Fetch(ctx), u.FetchCurrent(ctx))
	})
	return u
}

// Fetch reloads the user list.
func (u *Users) Fetch(ctx context.Context) error {
	return u.users.load(ctx, func(ctx context.Context) (map[int]api.User, error) {
		list, err := u.api.GetUsers(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[int]api.User, len(list))
		for _, user := range list {
			byID[user.ID] = user
		}
		return byID, nil
	})
}

// FetchCurrent reloads the signed-in user.
func (u *Users) FetchCurrent(ctx context.Context) error {
	return u.current.load(ctx, u.api.GetMe)
}

func (u *Users) All() observable.Readable[loadable.Loadable[map[int]api.User]] {
	return u.users.state
}

func (u *Users) CurrentUser() observable.Readable[loadable.Loadable[api.User]] {
	return u.current.state
}

// Get returns the user with id, nil when unknown.
func (u *Users) Get(id int) *observable.Derived[loadable.Loadable[*api.User]] {
	return observable.Select[loadable.Loadable[map[int]api.User], loadable.Loadable[*api.User]](u.users.state,
		func(l loadable.Loadable[map[int]api.User]) loadable.Loadable[*api.User] {
			return loadable.Map(l, func(byID map[int]api.User) *api.User {
				user, ok := byID[id]
				if !ok {
					return nil
				}
				return &user
			})
		})
}

// Sorted lists users by display name.
func (u *Users) Sorted() *observable.Derived[loadable.Loadable[[]api.User]] {
	return observable.Select[loadable.Loadable[map[int]api.User], loadable.Loadable[[]api.User]](u.users.state,
		func(l loadable.Loadable[map[int]api.User]) loadable.Loadable[[]api.User] {
			return loadable.Map(l, func(byID map[int]api.User) []api.User {
				out := make([]api.User, 0, len(byID))
				for _, user := range byID {
					out = append(out, user)
				}
				slices.SortFunc(out, func(a, b api.User) int {
					if c := strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name())); c != 0 {
						return c
					}
					return cmp.Compare(a.ID, b.ID)
				})
				return out
			})
		})
}

func (u *Users) setCurrent(user api.User) {
	u.current.state.Set(loadable.Loaded(user))
}

func (u *Users) Poller() *polling.Poller { return u.poller }

// Reset forgets every cached user.
func (u *Users) Reset() {
	u.users.reset()
	u.current.reset()
}
