package stores

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
	"github.com/five82/mlconsole/internal/polling"
)

// WorkspaceAPI is what the workspace store calls.
type WorkspaceAPI interface {
	GetWorkspaces(ctx context.Context) ([]api.Workspace, error)
	api.WorkspaceWriter
}

// Workspaces caches workspaces by ID.
type Workspaces struct {
	api        WorkspaceAPI
	workspaces *resource[map[int]api.Workspace]
	poller     *polling.Poller
}

func newWorkspaces(client WorkspaceAPI, newPoller pollerFactory) *Workspaces {
	w := &Workspaces{
		api:        client,
		workspaces: newResource[map[int]api.Workspace]("workspaces"),
	}
	w.poller = newPoller("workspaces", func(ctx context.Context, _ ...any) error {
		return w.Fetch(ctx)
	})
	return w
}

func (w *Workspaces) Fetch(ctx context.Context) error {
	return w.workspaces.load(ctx, func(ctx context.Context) (map[int]api.Workspace, error) {
		list, err := w.api.GetWorkspaces(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[int]api.Workspace, len(list))
		for _, ws := range list {
			byID[ws.ID] = ws
		}
		return byID, nil
	})
}

func (w *Workspaces) All() observable.Readable[loadable.Loadable[map[int]api.Workspace]] {
	return w.workspaces.state
}

// Unarchived lists live workspaces, pinned first, then by name.
func (w *Workspaces) Unarchived() *observable.Derived[loadable.Loadable[[]api.Workspace]] {
	return w.List(false)
}

// List is Unarchived with archived workspaces optionally kept.
func (w *Workspaces) List(archived bool) *observable.Derived[loadable.Loadable[[]api.Workspace]] {
	return observable.Select[loadable.Loadable[map[int]api.Workspace], loadable.Loadable[[]api.Workspace]](w.workspaces.state,
		func(l loadable.Loadable[map[int]api.Workspace]) loadable.Loadable[[]api.Workspace] {
			return loadable.Map(l, func(byID map[int]api.Workspace) []api.Workspace {
				out := make([]api.Workspace, 0, len(byID))
				for _, ws := range byID {
					if archived || !ws.Archived {
						out = append(out, ws)
					}
				}
				slices.SortFunc(out, compareWorkspaces)
				return out
			})
		})
}

func (w *Workspaces) Get(id int) *observable.Derived[loadable.Loadable[*api.Workspace]] {
	return observable.Select[loadable.Loadable[map[int]api.Workspace], loadable.Loadable[*api.Workspace]](w.workspaces.state,
		func(l loadable.Loadable[map[int]api.Workspace]) loadable.Loadable[*api.Workspace] {
			return loadable.Map(l, func(byID map[int]api.Workspace) *api.Workspace {
				ws, ok := byID[id]
				if !ok {
					return nil
				}
				return &ws
			})
		})
}

// Pin pins the workspace on the master and then locally.
func (w *Workspaces) Pin(ctx context.Context, id int) error {
	if err := w.api.PinWorkspace(ctx, id); err != nil {
		return fmt.Errorf("pin workspace %d: %w", id, err)
	}
	w.setPinned(id, true)
	return nil
}

// Unpin removes the pin on the master and then locally.
func (w *Workspaces) Unpin(ctx context.Context, id int) error {
	if err := w.api.UnpinWorkspace(ctx, id); err != nil {
		return fmt.Errorf("unpin workspace %d: %w", id, err)
	}
	w.setPinned(id, false)
	return nil
}

func (w *Workspaces) setPinned(id int, pinned bool) {
	w.workspaces.update(func(byID map[int]api.Workspace) map[int]api.Workspace {
		ws, ok := byID[id]
		if !ok || ws.Pinned == pinned {
			return byID
		}
		next := maps.Clone(byID)
		ws.Pinned = pinned
		next[id] = ws
		return next
	})
}

func (w *Workspaces) Poller() *polling.Poller { return w.poller }

func (w *Workspaces) Reset() { w.workspaces.reset() }

func compareWorkspaces(a, b api.Workspace) int {
	if a.Pinned != b.Pinned {
		if a.Pinned {
			return -1
		}
		return 1
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
