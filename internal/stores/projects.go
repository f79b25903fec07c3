package stores

import (
	"context"
	"fmt"
	"slices"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
	"github.com/five82/mlconsole/internal/polling"
)

// ProjectSet indexes projects by workspace ID.
type ProjectSet = Indexed[api.Project]

var projectKeys = keys[api.Project]{
	id:    func(p api.Project) int { return p.ID },
	group: func(p api.Project) int { return p.WorkspaceID },
}

// Projects caches projects with a workspace index.
type Projects struct {
	api      api.ResourceAPI
	projects *resource[ProjectSet]
	poller   *polling.Poller
}

func newProjects(client api.ResourceAPI, newPoller pollerFactory) *Projects {
	p := &Projects{
		api:      client,
		projects: newResource[ProjectSet]("projects"),
	}
	p.poller = newPoller("projects", func(ctx context.Context, args ...any) error {
		id, err := intArg(args)
		if err != nil {
			return err
		}
		return p.FetchWorkspace(ctx, id)
	})
	return p
}

// FetchWorkspace replaces the projects of one workspace with the master's
// list, dropping projects that left it.
func (p *Projects) FetchWorkspace(ctx context.Context, workspaceID int) error {
	list, err := p.api.GetWorkspaceProjects(ctx, workspaceID)
	if err != nil {
		p.projects.fail(ctx, err)
		return fmt.Errorf("fetch projects of workspace %d: %w", workspaceID, err)
	}
	p.projects.state.Update(func(cur loadable.Loadable[ProjectSet]) loadable.Loadable[ProjectSet] {
		set := loadable.GetOrElse(ProjectSet{}, cur)
		return loadable.Loaded(projectKeys.replaceGroup(set, workspaceID, list))
	})
	return nil
}

// Watch polls the projects of workspaceID, replacing any previous watch.
func (p *Projects) Watch(ctx context.Context, workspaceID int, opts polling.Options) {
	opts.Args = []any{workspaceID}
	cond := opts.Condition
	opts.Condition = func() bool {
		return workspaceID > 0 && (cond == nil || cond())
	}
	p.poller.Start(ctx, opts)
}

// Upsert inserts or replaces a project, moving it between workspaces when
// its WorkspaceID changed.
func (p *Projects) Upsert(project api.Project) {
	p.projects.state.Update(func(cur loadable.Loadable[ProjectSet]) loadable.Loadable[ProjectSet] {
		return loadable.Loaded(projectKeys.with(loadable.GetOrElse(ProjectSet{}, cur), project))
	})
}

// Delete removes a project and its index entry.
func (p *Projects) Delete(id int) {
	p.projects.update(func(set ProjectSet) ProjectSet { return projectKeys.without(set, id) })
}

func (p *Projects) All() observable.Readable[loadable.Loadable[ProjectSet]] {
	return p.projects.state
}

// ForWorkspace lists the projects of one workspace by name.
func (p *Projects) ForWorkspace(workspaceID int) *observable.Derived[loadable.Loadable[[]api.Project]] {
	return observable.Select[loadable.Loadable[ProjectSet], loadable.Loadable[[]api.Project]](p.projects.state,
		func(l loadable.Loadable[ProjectSet]) loadable.Loadable[[]api.Project] {
			return loadable.Map(l, func(set ProjectSet) []api.Project {
				out := set.Group(workspaceID)
				slices.SortStableFunc(out, func(a, b api.Project) int {
					if a.Name < b.Name {
						return -1
					}
					if a.Name > b.Name {
						return 1
					}
					return a.ID - b.ID
				})
				return out
			})
		})
}

func (p *Projects) Get(id int) *observable.Derived[loadable.Loadable[*api.Project]] {
	return observable.Select[loadable.Loadable[ProjectSet], loadable.Loadable[*api.Project]](p.projects.state,
		func(l loadable.Loadable[ProjectSet]) loadable.Loadable[*api.Project] {
			return loadable.Map(l, func(set ProjectSet) *api.Project { return set.Lookup(id) })
		})
}

func (p *Projects) Poller() *polling.Poller { return p.poller }

func (p *Projects) Reset() { p.projects.reset() }

func intArg(args []any) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing id argument")
	}
	id, ok := args[0].(int)
	if !ok {
		return 0, fmt.Errorf("id argument is %T, want int", args[0])
	}
	return id, nil
}
