package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/api/apitest"
)

func gpuSlot(id string, busy bool) api.Slot {
	s := api.Slot{ID: id, Enabled: true, Device: api.Device{Type: "cuda"}}
	if busy {
		s.Container = &api.Container{ID: "c-" + id, State: "RUNNING"}
	}
	return s
}

func TestTally(t *testing.T) {
	agents := []api.Agent{
		{ID: "a", Enabled: true, Slots: map[string]api.Slot{
			"0": gpuSlot("0", true),
			"1": gpuSlot("1", false),
			"2": {ID: "2", Enabled: false, Device: api.Device{Type: "cuda"}},
			"3": {ID: "3", Enabled: true},
		}},
		{ID: "b", Enabled: true, Draining: true, Slots: map[string]api.Slot{
			"0": gpuSlot("0", false),
			"1": gpuSlot("1", true),
		}},
	}

	o := Tally(agents)
	assert.Equal(t, 2, o.Agents)
	assert.Equal(t, []string{"cuda", "unknown"}, o.DeviceTypes())
	assert.Equal(t, SlotTally{Total: 5, Allocated: 2, Disabled: 2}, o.ByType["cuda"])
	assert.Equal(t, SlotTally{Total: 1}, o.ByType["unknown"])
	assert.Equal(t, SlotTally{Total: 6, Allocated: 2, Disabled: 2}, o.Overall)
	assert.Equal(t, 2, o.Overall.Free())
	assert.InDelta(t, 0.5, o.Overall.Utilization(), 1e-9)
}

func TestSlotTally_UtilizationWithoutEnabledSlots(t *testing.T) {
	assert.Zero(t, SlotTally{Total: 2, Disabled: 2}.Utilization())
}

func TestCluster_FetchSorts(t *testing.T) {
	m := apitest.New(t)
	m.SetAgents(
		api.Agent{ID: "b", Enabled: true, Slots: map[string]api.Slot{"0": gpuSlot("0", false)}},
		api.Agent{ID: "a", Enabled: true},
	)
	m.SetResourcePools(api.ResourcePool{Name: "gpu"}, api.ResourcePool{Name: "cpu"})
	c := newCluster(m.Client(t), testPollerFactory)

	require.NoError(t, c.Fetch(context.Background()))

	agents, ok := c.Agents().Get().Value()
	require.True(t, ok)
	require.Len(t, agents, 2)
	assert.Equal(t, "a", agents[0].ID)
	pools, ok := c.ResourcePools().Get().Value()
	require.True(t, ok)
	assert.Equal(t, "cpu", pools[0].Name)

	overview, ok := c.Overview().Get().Value()
	require.True(t, ok)
	assert.Equal(t, 1, overview.Overall.Free())
}

func TestCluster_AgentsByLoad(t *testing.T) {
	m := apitest.New(t)
	m.SetAgents(
		api.Agent{ID: "a", Enabled: true, ResourcePools: []string{"gpu", "cpu"}, Slots: map[string]api.Slot{"0": gpuSlot("0", false)}},
		api.Agent{ID: "b", Enabled: true, Slots: map[string]api.Slot{"0": gpuSlot("0", true)}},
		api.Agent{ID: "c", Enabled: true},
	)
	c := newCluster(m.Client(t), testPollerFactory)

	assert.True(t, c.AgentsByLoad().IsNotLoaded())
	require.NoError(t, c.Fetch(context.Background()))

	byLoad, ok := c.AgentsByLoad().Value()
	require.True(t, ok)
	var ids []string
	for _, a := range byLoad {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, []string{"cpu", "gpu"}, byLoad[1].ResourcePools)

	byLoad[1].Slots["0"] = gpuSlot("0", true)
	stored, _ := c.Agents().Get().Value()
	assert.Nil(t, stored[0].Slots["0"].Container)
	assert.Equal(t, []string{"gpu", "cpu"}, stored[0].ResourcePools)
}
