package stores

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/polling"
)

func TestContext_RefreshLoadsEverything(t *testing.T) {
	c, m, _ := newTestContext(t)
	m.SetUsers(api.User{ID: 1, Username: "admin"})
	m.SetWorkspaces(api.Workspace{ID: 1, Name: "Uncategorized"})
	m.SetTasks(api.TaskCounts{Notebooks: 2, Shells: 1})
	m.PutSetting("theme", "mode", `"dark"`)

	require.NoError(t, c.Refresh(context.Background()))

	assert.True(t, c.Settings.State().Get().IsLoaded())
	assert.True(t, c.Users.All().Get().IsLoaded())
	assert.True(t, c.Users.CurrentUser().Get().IsLoaded())
	assert.True(t, c.Workspaces.All().Get().IsLoaded())
	assert.True(t, c.Cluster.Agents().Get().IsLoaded())
	counts, ok := c.Tasks.Counts().Get().Value()
	require.True(t, ok)
	assert.Equal(t, 3, counts.Total())
	info, ok := c.Info.Master().Get().Value()
	require.True(t, ok)
	assert.Equal(t, "test", info.ClusterName)
}

func TestContext_RefreshReportsFailureButLoadsTheRest(t *testing.T) {
	c, m, _ := newTestContext(t)
	m.FailNext("/api/v1/agents", http.StatusInternalServerError)

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, c.Cluster.Agents().Get().IsFailed())
	assert.True(t, c.Workspaces.All().Get().IsLoaded())
}

func TestInfo_FetchedOnce(t *testing.T) {
	c, m, _ := newTestContext(t)

	require.NoError(t, c.Info.Fetch(context.Background()))
	require.NoError(t, c.Info.Fetch(context.Background()))
	assert.Equal(t, 1, m.Calls("/api/v1/master"))
}

func TestContext_StartAndStopPolling(t *testing.T) {
	c, m, _ := newTestContext(t)
	m.SetWorkspaces(api.Workspace{ID: 1, Name: "Uncategorized"})

	c.StartPolling(context.Background(), time.Hour, time.Hour)
	require.Eventually(t, func() bool {
		return c.Workspaces.All().Get().IsLoaded() && c.Settings.State().Get().IsLoaded()
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, c.Cluster.Poller().Running())
	assert.False(t, c.Projects.Poller().Running())

	c.StopPolling()
	for _, p := range c.Pollers() {
		assert.False(t, p.Running(), p.Name())
		assert.Equal(t, polling.StateIdle, p.State(), p.Name())
	}
}
