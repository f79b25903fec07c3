package stores

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/api/apitest"
)

func TestWorkspaces_UnarchivedOrder(t *testing.T) {
	m := apitest.New(t)
	m.SetWorkspaces(
		api.Workspace{ID: 1, Name: "Uncategorized"},
		api.Workspace{ID: 2, Name: "beta"},
		api.Workspace{ID: 3, Name: "zeta", Pinned: true},
		api.Workspace{ID: 4, Name: "alpha", Archived: true},
	)
	w := newWorkspaces(m.Client(t), testPollerFactory)
	require.NoError(t, w.Fetch(context.Background()))

	list, ok := w.Unarchived().Get().Value()
	require.True(t, ok)
	ids := make([]int, 0, len(list))
	for _, ws := range list {
		ids = append(ids, ws.ID)
	}
	assert.Equal(t, []int{3, 2, 1}, ids)
}

func TestWorkspaces_PinUpdatesLocally(t *testing.T) {
	m := apitest.New(t)
	m.SetWorkspaces(api.Workspace{ID: 1, Name: "a"})
	w := newWorkspaces(m.Client(t), testPollerFactory)
	require.NoError(t, w.Fetch(context.Background()))
	before, _ := w.All().Get().Value()

	require.NoError(t, w.Pin(context.Background(), 1))
	ws, _ := w.Get(1).Get().Value()
	require.NotNil(t, ws)
	assert.True(t, ws.Pinned)
	assert.False(t, before[1].Pinned, "previous snapshot mutated")

	require.NoError(t, w.Unpin(context.Background(), 1))
	ws, _ = w.Get(1).Get().Value()
	assert.False(t, ws.Pinned)
}

func TestWorkspaces_PinFailureLeavesState(t *testing.T) {
	m := apitest.New(t)
	m.SetWorkspaces(api.Workspace{ID: 1, Name: "a"})
	w := newWorkspaces(m.Client(t), testPollerFactory)
	require.NoError(t, w.Fetch(context.Background()))

	m.FailNext("/api/v1/workspaces/1/pin", http.StatusInternalServerError)
	require.Error(t, w.Pin(context.Background(), 1))
	ws, _ := w.Get(1).Get().Value()
	assert.False(t, ws.Pinned)
}
