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

// experimentFetchLimit bounds one project fetch.
const experimentFetchLimit = 1000

// ExperimentSet indexes experiments by project ID.
type ExperimentSet = Indexed[api.Experiment]

var experimentKeys = keys[api.Experiment]{
	id:    func(e api.Experiment) int { return e.ID },
	group: func(e api.Experiment) int { return e.ProjectID },
}

// Experiments caches experiments with a project index.
type Experiments struct {
	api         api.ResourceAPI
	experiments *resource[ExperimentSet]
	poller      *polling.Poller
}

func newExperiments(client api.ResourceAPI, newPoller pollerFactory) *Experiments {
	e := &Experiments{
		api:         client,
		experiments: newResource[ExperimentSet]("experiments"),
	}
	e.poller = newPoller("experiments", func(ctx context.Context, args ...any) error {
		id, err := intArg(args)
		if err != nil {
			return err
		}
		return e.FetchProject(ctx, id)
	})
	return e
}

// FetchProject replaces the experiments of one project.
func (e *Experiments) FetchProject(ctx context.Context, projectID int) error {
	resp, err := e.api.GetExperiments(ctx, api.ExperimentQuery{
		ProjectID: projectID,
		Limit:     experimentFetchLimit,
		SortBy:    "id",
		OrderBy:   "desc",
	})
	if err != nil {
		e.experiments.fail(ctx, err)
		return fmt.Errorf("fetch experiments of project %d: %w", projectID, err)
	}
	e.experiments.state.Update(func(cur loadable.Loadable[ExperimentSet]) loadable.Loadable[ExperimentSet] {
		set := loadable.GetOrElse(ExperimentSet{}, cur)
		return loadable.Loaded(experimentKeys.replaceGroup(set, projectID, resp.Experiments))
	})
	return nil
}

// Watch polls the experiments of projectID, replacing any previous watch.
func (e *Experiments) Watch(ctx context.Context, projectID int, opts polling.Options) {
	opts.Args = []any{projectID}
	cond := opts.Condition
	opts.Condition = func() bool {
		return projectID > 0 && (cond == nil || cond())
	}
	e.poller.Start(ctx, opts)
}

// Upsert inserts or replaces one experiment.
func (e *Experiments) Upsert(exp api.Experiment) {
	e.experiments.state.Update(func(cur loadable.Loadable[ExperimentSet]) loadable.Loadable[ExperimentSet] {
		return loadable.Loaded(experimentKeys.with(loadable.GetOrElse(ExperimentSet{}, cur), exp))
	})
}

// Delete removes one experiment.
func (e *Experiments) Delete(id int) {
	e.experiments.update(func(set ExperimentSet) ExperimentSet { return experimentKeys.without(set, id) })
}

func (e *Experiments) All() observable.Readable[loadable.Loadable[ExperimentSet]] {
	return e.experiments.state
}

// ForProject lists a project's experiments, newest first.
func (e *Experiments) ForProject(projectID int) *observable.Derived[loadable.Loadable[[]api.Experiment]] {
	return observable.Select[loadable.Loadable[ExperimentSet], loadable.Loadable[[]api.Experiment]](e.experiments.state,
		func(l loadable.Loadable[ExperimentSet]) loadable.Loadable[[]api.Experiment] {
			return loadable.Map(l, func(set ExperimentSet) []api.Experiment {
				out := set.Group(projectID)
				slices.Reverse(out)
				return out
			})
		})
}

// Filter lists a project's experiments matching f, newest first. An
// evaluation error fails the derived value.
func (e *Experiments) Filter(projectID int, f *Filter) *observable.Derived[loadable.Loadable[[]api.Experiment]] {
	return observable.Select[loadable.Loadable[[]api.Experiment], loadable.Loadable[[]api.Experiment]](e.ForProject(projectID),
		func(l loadable.Loadable[[]api.Experiment]) loadable.Loadable[[]api.Experiment] {
			return loadable.FlatMap(l, func(list []api.Experiment) loadable.Loadable[[]api.Experiment] {
				out, err := f.Apply(list)
				if err != nil {
					return loadable.Failed[[]api.Experiment](err)
				}
				return loadable.Loaded(out)
			})
		})
}

func (e *Experiments) Get(id int) *observable.Derived[loadable.Loadable[*api.Experiment]] {
	return observable.Select[loadable.Loadable[ExperimentSet], loadable.Loadable[*api.Experiment]](e.experiments.state,
		func(l loadable.Loadable[ExperimentSet]) loadable.Loadable[*api.Experiment] {
			return loadable.Map(l, func(set ExperimentSet) *api.Experiment { return set.Lookup(id) })
		})
}

func (e *Experiments) Poller() *polling.Poller { return e.poller }

func (e *Experiments) Reset() { e.experiments.reset() }
