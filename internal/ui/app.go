package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/polling"
	"github.com/five82/mlconsole/internal/prefs"
	"github.com/five82/mlconsole/internal/stores"
)

// View represents the current active view.
type View int

const (
	ViewCluster View = iota
	ViewWorkspaces
	ViewExperiments
	ViewSettings
)

var viewOrder = []View{ViewCluster, ViewWorkspaces, ViewExperiments, ViewSettings}

func (v View) String() string {
	switch v {
	case ViewCluster:
		return "Cluster"
	case ViewWorkspaces:
		return "Workspaces"
	case ViewExperiments:
		return "Experiments"
	case ViewSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Stores  *stores.Context
	Errors  *errs.Handler
	Prefs   *prefs.Store

	// ThemeMode is used until the remote theme setting loads.
	ThemeMode string

	// WatchOptions drive the project and experiment pollers started when a
	// workspace or project is opened.
	WatchOptions polling.Options

	// Interval redraws relative times and expires notifications.
	Interval time.Duration
}

// snapshot is everything the views read, copied out of the stores after
// each change so View never touches shared state.
type snapshot struct {
	session     loadable.Loadable[stores.Session]
	info        api.MasterInfo
	tasks       loadable.Loadable[api.TaskCounts]
	overview    loadable.Loadable[stores.Overview]
	agents      loadable.Loadable[[]api.Agent]
	pools       loadable.Loadable[[]api.ResourcePool]
	workspaces  loadable.Loadable[[]api.Workspace]
	projects    loadable.Loadable[[]api.Project]
	project     *api.Project
	experiments loadable.Loadable[stores.TableResult]

	settingsLoaded bool
	themeMode      string
	table          TableSettings
	flags          FeatureFlags

	notes   []errs.Notification
	updated time.Time
}

func (s snapshot) flag(name string) bool {
	return s.flags[name]
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx      context.Context
	stores   *stores.Context
	handler  *errs.Handler
	prefs    *prefs.Store
	keys     keyMap
	bridge   *bridge
	settings userSettings
	watch    polling.Options
	interval time.Duration
	now      func() time.Time

	// UI state
	theme       Theme
	localMode   string
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snap snapshot

	// Workspaces state
	focusedPane  int // 0 = workspaces, 1 = projects
	workspaceRow int
	projectRow   int
	workspaceID  int
	projectID    int

	// Experiments state
	expRow      int
	offset      int
	filterInput textinput.Model
	filtering   bool
	filterErr   error

	// Settings state
	settingsRow int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	handler := opts.Errors
	if handler == nil {
		handler = errs.New(zerolog.Nop())
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultUIInterval
	}

	watch := opts.WatchOptions
	if watch.Delay == 0 && watch.MaxRetry == 0 {
		watch = polling.DefaultOptions()
	}

	localMode := opts.ThemeMode
	if localMode == "" {
		localMode = ModeDark
	}

	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = `state == "RUNNING" && progress > 0.5`
	input.CharLimit = 256

	m := Model{
		ctx:         ctx,
		stores:      opts.Stores,
		handler:     handler,
		prefs:       opts.Prefs,
		keys:        DefaultKeyMap(),
		bridge:      newBridge(opts.Stores, handler),
		settings:    bindUserSettings(opts.Stores.Settings),
		watch:       watch,
		interval:    interval,
		now:         time.Now,
		localMode:   localMode,
		theme:       ThemeForMode(localMode),
		currentView: ViewCluster,
		filterInput: input,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.interval),
		m.bridge.wait(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampRows()
		return m, nil

	case tickMsg:
		m.snap.notes = m.handler.Active()
		m.snap.updated = m.now()
		return m, tickCmd(m.interval)

	case changedMsg:
		m.refresh()
		return m, m.bridge.wait()

	case actionMsg:
		m.handleAction(msg)
		m.refresh()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// refresh copies store state into the snapshot.
func (m *Model) refresh() {
	sc := m.stores
	s := snapshot{
		session:        sc.Auth.Session().Get(),
		info:           loadable.GetOrElse(api.MasterInfo{}, sc.Info.Master().Get()),
		tasks:          sc.Tasks.Counts().Get(),
		overview:       sc.Cluster.Overview().Get(),
		agents:         sc.Cluster.AgentsByLoad(),
		pools:          sc.Cluster.ResourcePools().Get(),
		settingsLoaded: sc.Settings.State().Get().IsLoaded(),
		themeMode:      m.settings.theme.Current(ThemeSettings{}).Mode,
		table:          m.settings.table.Current(TableSettings{}),
		flags:          m.settings.flags.Current(nil),
		notes:          m.handler.Active(),
		updated:        m.now(),
	}
	s.workspaces = sc.Workspaces.List(s.flag(FlagShowArchived)).Get()

	if m.workspaceID > 0 {
		s.projects = sc.Projects.ForWorkspace(m.workspaceID).Get()
	}
	if m.projectID > 0 {
		s.project = orZero(sc.Projects.Get(m.projectID).Get())
		query := stores.TableQuery{
			Filter: s.table.Filter,
			Sort:   s.table.sortKey(),
			Desc:   s.table.SortDesc,
			Offset: m.offset,
			Limit:  s.table.pageSize(),
		}
		s.experiments = loadable.FlatMap(sc.Experiments.ForProject(m.projectID).Get(),
			func(list []api.Experiment) loadable.Loadable[stores.TableResult] {
				res, err := query.Run(list)
				if err != nil {
					return loadable.Failed[stores.TableResult](err)
				}
				return loadable.Loaded(res)
			})
	}

	m.snap = s
	mode := s.themeMode
	if mode == "" {
		mode = m.localMode
	}
	m.theme = ThemeForMode(mode)
	m.clampRows()
}

// clampRows keeps every cursor inside its list.
func (m *Model) clampRows() {
	m.workspaceRow = clamp(m.workspaceRow, len(orZero(m.snap.workspaces)))
	m.projectRow = clamp(m.projectRow, len(orZero(m.snap.projects)))
	m.expRow = clamp(m.expRow, len(orZero(m.snap.experiments).Rows))
	m.settingsRow = clamp(m.settingsRow, len(m.settingsRows()))
}

func clamp(row, n int) int {
	if n == 0 || row < 0 {
		return 0
	}
	if row >= n {
		return n - 1
	}
	return row
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "h", "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.toggleTheme()
		return m, nil

	case "R":
		return m, m.refreshCmd()

	case "tab":
		m.currentView = m.cycleView(1)
		return m, nil

	case "shift+tab":
		m.currentView = m.cycleView(-1)
		return m, nil

	case "1", "c":
		m.currentView = ViewCluster
		return m, nil

	case "2", "w":
		m.currentView = ViewWorkspaces
		return m, nil

	case "3", "x":
		m.currentView = ViewExperiments
		return m, nil

	case "4", "s":
		m.currentView = ViewSettings
		return m, nil
	}

	switch m.currentView {
	case ViewWorkspaces:
		return m.handleWorkspacesKey(msg)
	case ViewExperiments:
		return m.handleExperimentsKey(msg)
	case ViewSettings:
		return m.handleSettingsKey(msg)
	}

	return m, nil
}

func (m Model) cycleView(step int) View {
	n := len(viewOrder)
	return viewOrder[((int(m.currentView)+step)%n+n)%n]
}

// toggleTheme flips the theme mode. The remote setting wins once loaded;
// prefs keep the choice for the next start.
func (m *Model) toggleTheme() {
	mode := NextMode(m.theme.Mode)
	m.localMode = mode
	if m.prefs != nil {
		if err := m.prefs.Update(func(p *prefs.Prefs) { p.Theme = mode }); err != nil {
			m.handler.Handle(err, errs.Options{Component: "ui", Level: errs.LevelWarn, PublicMessage: "Could not save theme preference."})
		}
	}
	if err := m.settings.theme.SetPartial(map[string]any{"mode": mode}); err != nil {
		m.handler.Handle(err, errs.Options{Component: "ui", PublicMessage: "Could not save theme."})
	}
	m.refresh()
}

// moveRow applies the shared navigation keys to a cursor.
func moveRow(keyName string, row, n, page int) int {
	switch keyName {
	case "j", "down":
		row++
	case "k", "up":
		row--
	case "g", "home":
		row = 0
	case "G", "end":
		row = n - 1
	case "ctrl+d":
		row += max(page/2, 1)
	case "ctrl+u":
		row -= max(page/2, 1)
	}
	return clamp(row, n)
}

// contentHeight is the height left for panes below the header.
func (m Model) contentHeight() int {
	return max(m.height-3, 3)
}

// Messages

type tickMsg time.Time

// actionMsg reports the outcome of a request started from a key.
type actionMsg struct {
	action string
	err    error
	done   string
}

func (m *Model) handleAction(msg actionMsg) {
	if msg.err != nil {
		m.handler.Handle(msg.err, errs.Options{
			Component:     "ui",
			PublicMessage: fmt.Sprintf("%s failed.", capitalize(msg.action)),
		})
		return
	}
	if msg.done != "" {
		m.handler.Notify(errs.LevelInfo, msg.done)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// actionCmd runs fn with ActionTimeout off the update loop.
func (m Model) actionCmd(action, done string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return actionMsg{action: action, err: fn(ctx), done: done}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	sc := m.stores
	return m.actionCmd("refresh", "", sc.Refresh)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	defer m.bridge.close()

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if err != nil && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
