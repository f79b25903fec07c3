package stores

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tiendc/go-deepcopy"
	"golang.org/x/sync/errgroup"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
	"github.com/five82/mlconsole/internal/polling"
)

// SlotTally counts slots of one device type.
type SlotTally struct {
	Total     int
	Allocated int
	Disabled  int
}

// Free is the number of enabled, idle slots.
func (t SlotTally) Free() int {
	return t.Total - t.Allocated - t.Disabled
}

// Utilization is the allocated fraction of enabled slots.
func (t SlotTally) Utilization() float64 {
	enabled := t.Total - t.Disabled
	if enabled <= 0 {
		return 0
	}
	return float64(t.Allocated) / float64(enabled)
}

// Overview summarizes the cluster's slots.
type Overview struct {
	Agents  int
	ByType  map[string]SlotTally
	Overall SlotTally
}

// DeviceTypes lists the device types present, sorted.
func (o Overview) DeviceTypes() []string {
	out := make([]string, 0, len(o.ByType))
	for t := range o.ByType {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Cluster caches agents and resource pools.
type Cluster struct {
	api    api.ResourceAPI
	agents *resource[[]api.Agent]
	pools  *resource[[]api.ResourcePool]
	poller *polling.Poller
}

func newCluster(client api.ResourceAPI, newPoller pollerFactory) *Cluster {
	c := &Cluster{
		api:    client,
		agents: newResource[[]api.Agent]("agents"),
		pools:  newResource[[]api.ResourcePool]("resource pools"),
	}
	c.poller = newPoller("cluster", func(ctx context.Context, _ ...any) error {
		return c.Fetch(ctx)
	})
	return c
}

// Fetch reloads agents and resource pools concurrently.
func (c *Cluster) Fetch(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		return c.agents.load(ctx, func(ctx context.Context) ([]api.Agent, error) {
			agents, err := c.api.GetAgents(ctx)
			if err != nil {
				return nil, err
			}
			slices.SortFunc(agents, func(a, b api.Agent) int { return strings.Compare(a.ID, b.ID) })
			return agents, nil
		})
	})
	g.Go(func() error {
		return c.pools.load(ctx, func(ctx context.Context) ([]api.ResourcePool, error) {
			pools, err := c.api.GetResourcePools(ctx)
			if err != nil {
				return nil, err
			}
			slices.SortFunc(pools, func(a, b api.ResourcePool) int { return strings.Compare(a.Name, b.Name) })
			return pools, nil
		})
	})
	return g.Wait()
}

func (c *Cluster) Agents() observable.Readable[loadable.Loadable[[]api.Agent]] {
	return c.agents.state
}

func (c *Cluster) ResourcePools() observable.Readable[loadable.Loadable[[]api.ResourcePool]] {
	return c.pools.state
}

// Overview tallies slots by device type across enabled agents. Slots of
// disabled or draining agents count as disabled.
func (c *Cluster) Overview() *observable.Derived[loadable.Loadable[Overview]] {
	return observable.Select[loadable.Loadable[[]api.Agent], loadable.Loadable[Overview]](c.agents.state,
		func(l loadable.Loadable[[]api.Agent]) loadable.Loadable[Overview] {
			return loadable.Map(l, Tally)
		})
}

// Tally computes an Overview from agents.
func Tally(agents []api.Agent) Overview {
	o := Overview{Agents: len(agents), ByType: make(map[string]SlotTally)}
	for _, agent := range agents {
		for _, slot := range agent.Slots {
			typ := slot.Device.Type
			if typ == "" {
				typ = "unknown"
			}
			t := o.ByType[typ]
			t.Total++
			o.Overall.Total++
			switch {
			case slot.Container != nil:
				t.Allocated++
				o.Overall.Allocated++
			case !agent.Enabled || agent.Draining || !slot.Enabled || slot.Draining:
				t.Disabled++
				o.Overall.Disabled++
			}
			o.ByType[typ] = t
		}
	}
	return o
}

// AgentsByLoad returns a deep copy of the loaded agents, busiest first and
// with their resource pools sorted. The copy belongs to the caller.
func (c *Cluster) AgentsByLoad() loadable.Loadable[[]api.Agent] {
	return loadable.FlatMap(c.agents.state.Get(), func(agents []api.Agent) loadable.Loadable[[]api.Agent] {
		var out []api.Agent
		if err := deepcopy.Copy(&out, agents); err != nil {
			return loadable.Failed[[]api.Agent](fmt.Errorf("copy agents: %w", err))
		}
		slices.SortStableFunc(out, func(a, b api.Agent) int {
			if d := cmp.Compare(allocated(b), allocated(a)); d != 0 {
				return d
			}
			return strings.Compare(a.ID, b.ID)
		})
		for i := range out {
			slices.Sort(out[i].ResourcePools)
		}
		return loadable.Loaded(out)
	})
}

func allocated(a api.Agent) int {
	n := 0
	for _, slot := range a.Slots {
		if slot.Container != nil {
			n++
		}
	}
	return n
}

func (c *Cluster) Poller() *polling.Poller { return c.poller }

func (c *Cluster) Reset() {
	c.agents.reset()
	c.pools.reset()
}
