package stores

import (
	"context"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
	"github.com/five82/mlconsole/internal/polling"
)

// Tasks tracks the count of active commands, notebooks, shells and
// tensorboards.
type Tasks struct {
	api    api.ResourceAPI
	counts *resource[api.TaskCounts]
	poller *polling.Poller
}

func newTasks(client api.ResourceAPI, newPoller pollerFactory) *Tasks {
	t := &Tasks{api: client, counts: newResource[api.TaskCounts]("task counts")}
	t.poller = newPoller("tasks", func(ctx context.Context, _ ...any) error {
		return t.Fetch(ctx)
	})
	return t
}

func (t *Tasks) Fetch(ctx context.Context) error {
	return t.counts.load(ctx, t.api.GetActiveTasksCount)
}

func (t *Tasks) Counts() observable.Readable[loadable.Loadable[api.TaskCounts]] {
	return t.counts.state
}

func (t *Tasks) Poller() *polling.Poller { return t.poller }

func (t *Tasks) Reset() { t.counts.reset() }
