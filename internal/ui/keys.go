package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	ToggleTheme key.Binding
	Tab         key.Binding
	ShiftTab    key.Binding
	Refresh     key.Binding

	// View switching
	ViewCluster     key.Binding
	ViewWorkspaces  key.Binding
	ViewExperiments key.Binding
	ViewSettings    key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Select   key.Binding
	Back     key.Binding

	// Workspaces
	TogglePin key.Binding

	// Experiments
	Filter     key.Binding
	CycleSort  key.Binding
	ToggleDesc key.Binding

	// Settings
	ResetSettings key.Binding
	RemoveSetting key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Toggle light/dark"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Refresh now"),
		),

		ViewCluster: key.NewBinding(
			key.WithKeys("1", "c"),
			key.WithHelp("1/c", "Cluster"),
		),
		ViewWorkspaces: key.NewBinding(
			key.WithKeys("2", "w"),
			key.WithHelp("2/w", "Workspaces"),
		),
		ViewExperiments: key.NewBinding(
			key.WithKeys("3", "x"),
			key.WithHelp("3/x", "Experiments"),
		),
		ViewSettings: key.NewBinding(
			key.WithKeys("4", "s"),
			key.WithHelp("4/s", "Settings"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "["),
			key.WithHelp("[", "Previous page"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "]"),
			key.WithHelp("]", "Next page"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Select / toggle"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),

		TogglePin: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pin/unpin workspace"),
		),

		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Edit filter"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Cycle sort column"),
		),
		ToggleDesc: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "Toggle sort order"),
		),

		ResetSettings: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reset all settings"),
		),
		RemoveSetting: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Clear selected setting"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings grouped as in the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewCluster, k.ViewWorkspaces, k.ViewExperiments, k.ViewSettings},
		{k.Up, k.Down, k.Top, k.Bottom, k.Select, k.Back},
		{k.TogglePin},
		{k.Filter, k.CycleSort, k.ToggleDesc, k.PageDown, k.PageUp},
		{k.ResetSettings, k.RemoveSetting},
		{k.ToggleTheme, k.Refresh, k.Help, k.Quit},
	}
}
