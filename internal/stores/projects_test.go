package stores

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/api/apitest"
	"github.com/five82/mlconsole/internal/polling"
)

func TestProjects_FetchWorkspaceReplacesMembers(t *testing.T) {
	m := apitest.New(t)
	m.SetProjects(1, api.Project{ID: 1, Name: "b", WorkspaceID: 1}, api.Project{ID: 2, Name: "a", WorkspaceID: 1})
	m.SetProjects(2, api.Project{ID: 3, Name: "c", WorkspaceID: 2})
	p := newProjects(m.Client(t), testPollerFactory)

	require.NoError(t, p.FetchWorkspace(context.Background(), 1))
	require.NoError(t, p.FetchWorkspace(context.Background(), 2))

	list, ok := p.ForWorkspace(1).Get().Value()
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)

	m.SetProjects(1, api.Project{ID: 2, Name: "a", WorkspaceID: 1})
	require.NoError(t, p.FetchWorkspace(context.Background(), 1))

	set, _ := p.All().Get().Value()
	assertConsistent(t, projectKeys, set)
	assert.Nil(t, set.Lookup(1))
	assert.NotNil(t, set.Lookup(3))
}

func TestProjects_UpsertAndDelete(t *testing.T) {
	p := newProjects(apitest.New(t).Client(t), testPollerFactory)

	p.Upsert(api.Project{ID: 5, WorkspaceID: 1})
	p.Upsert(api.Project{ID: 5, WorkspaceID: 2})
	set, ok := p.All().Get().Value()
	require.True(t, ok)
	assertConsistent(t, projectKeys, set)
	assert.Equal(t, []int{5}, set.ByGroup[2])

	p.Delete(5)
	got, ok := p.Get(5).Get().Value()
	require.True(t, ok)
	assert.Nil(t, got)
}

func TestProjects_FailureBeforeLoad(t *testing.T) {
	m := apitest.New(t)
	m.FailNext("/api/v1/workspaces/1/projects", http.StatusInternalServerError)
	p := newProjects(m.Client(t), testPollerFactory)

	require.Error(t, p.FetchWorkspace(context.Background(), 1))
	assert.True(t, p.All().Get().IsFailed())
}

func TestProjects_WatchPollsSelectedWorkspace(t *testing.T) {
	m := apitest.New(t)
	m.SetProjects(7, api.Project{ID: 1, WorkspaceID: 7})
	p := newProjects(m.Client(t), testPollerFactory)
	defer p.Poller().Stop()

	p.Watch(context.Background(), 7, polling.DefaultOptions())
	require.Eventually(t, func() bool {
		set, ok := p.All().Get().Value()
		return ok && set.Lookup(1) != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProjects_WatchWithoutWorkspaceIsNoop(t *testing.T) {
	p := newProjects(apitest.New(t).Client(t), testPollerFactory)

	p.Watch(context.Background(), 0, polling.DefaultOptions())
	assert.False(t, p.Poller().Running())
}

func TestIntArg(t *testing.T) {
	id, err := intArg([]any{4})
	require.NoError(t, err)
	assert.Equal(t, 4, id)

	_, err = intArg(nil)
	assert.Error(t, err)
	_, err = intArg([]any{"4"})
	assert.Error(t, err)
}
