package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/api/apitest"
	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/prefs"
	"github.com/five82/mlconsole/internal/stores"
)

type fixture struct {
	master  *apitest.Master
	stores  *stores.Context
	handler *errs.Handler
	prefs   *prefs.Store
}

func newFixture(t *testing.T) (Model, *fixture) {
	t.Helper()
	master := apitest.New(t)
	master.SetWorkspaces(
		api.Workspace{ID: 1, Name: "Research"},
		api.Workspace{ID: 2, Name: "Old", Archived: true},
	)
	master.SetProjects(1, api.Project{ID: 10, Name: "vision", WorkspaceID: 1})
	master.SetExperiments(
		api.Experiment{ID: 1, Name: "baseline", State: "COMPLETED", ProjectID: 10, Progress: 1},
		api.Experiment{ID: 2, Name: "sweep", State: "RUNNING", ProjectID: 10, Progress: 0.4},
		api.Experiment{ID: 3, Name: "tuned", State: "RUNNING", ProjectID: 10, Progress: 0.9},
	)

	handler := errs.New(zerolog.Nop())
	sc := stores.New(master.Client(t), stores.Options{Handler: handler, Logger: zerolog.Nop()})
	t.Cleanup(func() {
		sc.StopPolling()
		sc.Settings.Flush()
	})
	require.NoError(t, sc.Refresh(context.Background()))

	store := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.toml"))
	m := New(Options{Context: context.Background(), Stores: sc, Errors: handler, Prefs: store})
	t.Cleanup(m.bridge.close)
	m = update(m, tea.WindowSizeMsg{Width: 140, Height: 40})

	return m, &fixture{master: master, stores: sc, handler: handler, prefs: store}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends one key and returns the model and the command it produced.
func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func pressAll(m Model, keys ...string) Model {
	for _, k := range keys {
		m, _ = press(m, k)
	}
	return m
}

// openProject walks from the workspaces view into the experiments of
// project 10.
func openProject(t *testing.T, m Model, f *fixture) Model {
	t.Helper()
	m = pressAll(m, "w")

	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	cmd()
	require.Eventually(t, func() bool {
		return f.stores.Projects.ForWorkspace(1).Get().IsLoaded()
	}, 2*time.Second, 10*time.Millisecond)
	m = update(m, changedMsg{})

	m, cmd = press(m, "enter")
	require.NotNil(t, cmd)
	cmd()
	require.Eventually(t, func() bool {
		return f.stores.Experiments.ForProject(10).Get().IsLoaded()
	}, 2*time.Second, 10*time.Millisecond)
	return update(m, changedMsg{})
}

func rowIDs(m Model) []int {
	var ids []int
	for _, e := range orZero(m.snap.experiments).Rows {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestModel_ViewSwitching(t *testing.T) {
	m, _ := newFixture(t)
	assert.Equal(t, ViewCluster, m.currentView)

	m = pressAll(m, "tab")
	assert.Equal(t, ViewWorkspaces, m.currentView)
	m = pressAll(m, "shift+tab", "shift+tab")
	assert.Equal(t, ViewSettings, m.currentView)
	m = pressAll(m, "x")
	assert.Equal(t, ViewExperiments, m.currentView)
	m = pressAll(m, "c")
	assert.Equal(t, ViewCluster, m.currentView)
}

func TestModel_ViewsRender(t *testing.T) {
	m, _ := newFixture(t)

	for _, v := range viewOrder {
		m.currentView = v
		out := m.View()
		assert.Contains(t, out, logoText, v.String())
		assert.Contains(t, out, v.String())
	}

	m = pressAll(m, "?")
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m = pressAll(m, "x")
	assert.False(t, m.showHelp)
	assert.Equal(t, ViewCluster, m.currentView, "key closing help must not act")
}

func TestModel_ThemeToggleStoresMode(t *testing.T) {
	m, f := newFixture(t)
	require.Equal(t, ModeDark, m.theme.Mode)

	m = pressAll(m, "T")

	assert.Equal(t, ModeLight, m.theme.Mode)
	assert.Equal(t, ModeLight, m.settings.theme.Current(ThemeSettings{}).Mode)
	assert.Equal(t, ModeLight, f.prefs.Load().Theme)
	require.Eventually(t, func() bool {
		v, ok := f.master.Setting(themeSettingsKey, "mode")
		return ok && v == `"light"`
	}, 2*time.Second, 10*time.Millisecond)

	m = pressAll(m, "T")
	assert.Equal(t, ModeDark, m.theme.Mode)
}

func TestModel_RemoteThemeWins(t *testing.T) {
	m, f := newFixture(t)
	f.master.PutSetting(themeSettingsKey, "mode", `"light"`)

	require.NoError(t, f.stores.Settings.Poll(context.Background()))
	m = update(m, changedMsg{})

	assert.Equal(t, ModeLight, m.theme.Mode)
}

func TestModel_OpenProjectShowsExperiments(t *testing.T) {
	m, f := newFixture(t)

	m = openProject(t, m, f)

	assert.Equal(t, ViewExperiments, m.currentView)
	require.NotNil(t, m.snap.project)
	assert.Equal(t, "vision", m.snap.project.Name)
	assert.Equal(t, []int{1, 2, 3}, rowIDs(m))
	assert.Contains(t, m.View(), "sweep")
}

func TestModel_FilterIsStored(t *testing.T) {
	m, f := newFixture(t)
	m = openProject(t, m, f)

	m = pressAll(m, "/")
	require.True(t, m.filtering)
	m = pressAll(m, `state == "RUNNING"`, "enter")

	assert.False(t, m.filtering)
	assert.Equal(t, `state == "RUNNING"`, m.settings.table.Current(TableSettings{}).Filter)
	assert.Equal(t, []int{2, 3}, rowIDs(m))
	require.Eventually(t, func() bool {
		_, ok := f.master.Setting(tableSettingsKey, "filter")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestModel_InvalidFilterKeepsEditing(t *testing.T) {
	m, f := newFixture(t)
	m = openProject(t, m, f)

	m = pressAll(m, "/", "state ==", "enter")

	assert.True(t, m.filtering)
	assert.Error(t, m.filterErr)
	assert.Empty(t, m.settings.table.Current(TableSettings{}).Filter)

	m = pressAll(m, "esc")
	assert.False(t, m.filtering)
	assert.Equal(t, []int{1, 2, 3}, rowIDs(m))
}

func TestModel_SortKeys(t *testing.T) {
	m, f := newFixture(t)
	m = openProject(t, m, f)

	m = pressAll(m, "O")
	assert.True(t, m.snap.table.SortDesc)
	assert.Equal(t, []int{3, 2, 1}, rowIDs(m))

	m = pressAll(m, "o")
	assert.Equal(t, stores.SortByName, m.snap.table.sortKey())
	// Descending by name: tuned, sweep, baseline.
	assert.Equal(t, []int{3, 2, 1}, rowIDs(m))

	m = pressAll(m, "O")
	assert.Equal(t, []int{1, 2, 3}, rowIDs(m))
}

func TestModel_SettingsToggles(t *testing.T) {
	m, _ := newFixture(t)
	assert.Len(t, orZero(m.snap.workspaces), 1)

	m = pressAll(m, "s", "j", "enter")
	assert.Equal(t, RowComfortable, m.snap.table.rowHeight())

	m = pressAll(m, "j", "enter")
	assert.Equal(t, 50, m.snap.table.pageSize())

	m = pressAll(m, "j", "enter")
	assert.True(t, m.snap.flag(FlagShowArchived))
	assert.Len(t, orZero(m.snap.workspaces), 2)

	m = pressAll(m, "d")
	assert.False(t, m.snap.flag(FlagShowArchived))
	assert.Nil(t, m.settings.flags.Current(nil))
}

func TestModel_PinWorkspace(t *testing.T) {
	m, f := newFixture(t)
	m = pressAll(m, "w")

	m, cmd := press(m, "p")
	require.NotNil(t, cmd)
	m = update(m, cmd())

	ws, ok := f.stores.Workspaces.Get(1).Get().Value()
	require.True(t, ok)
	require.NotNil(t, ws)
	assert.True(t, ws.Pinned)
	require.NotEmpty(t, f.handler.Active())
	assert.True(t, strings.HasPrefix(f.handler.Active()[0].Message, "Pinned"))
}

func TestModel_FailedActionNotifies(t *testing.T) {
	m, f := newFixture(t)
	f.master.FailNext("/api/v1/workspaces/1/pin", 500)
	m = pressAll(m, "w")

	m, cmd := press(m, "p")
	m = update(m, cmd())

	notes := f.handler.Active()
	require.Len(t, notes, 1)
	assert.Equal(t, errs.LevelError, notes[0].Level)
	assert.Equal(t, "Pin workspace failed.", notes[0].Message)
	assert.Contains(t, m.renderStatusLine(), "Pin workspace failed.")
}
