package ui

import (
	"fmt"
	"maps"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/settings"
)

type settingsRowKind int

const (
	rowTheme settingsRowKind = iota
	rowHeight
	rowPageSize
	rowFlag
)

type settingsRow struct {
	kind  settingsRowKind
	label string
	flag  string
}

func (m Model) settingsRows() []settingsRow {
	rows := []settingsRow{
		{kind: rowTheme, label: "Theme"},
		{kind: rowHeight, label: "Row height"},
		{kind: rowPageSize, label: "Page size"},
	}
	for _, f := range featureFlags {
		rows = append(rows, settingsRow{kind: rowFlag, label: flagLabel(f), flag: f})
	}
	return rows
}

func flagLabel(flag string) string {
	switch flag {
	case FlagShowArchived:
		return "Show archived workspaces"
	case FlagRelativeTimes:
		return "Relative start times"
	case FlagShowPools:
		return "Show resource pools"
	default:
		return flag
	}
}

func (m Model) settingValue(row settingsRow) string {
	switch row.kind {
	case rowTheme:
		if m.snap.themeMode == "" {
			return m.theme.Mode + " (local)"
		}
		return m.snap.themeMode
	case rowHeight:
		return m.snap.table.rowHeight()
	case rowPageSize:
		return fmt.Sprintf("%d", m.snap.table.pageSize())
	default:
		if m.snap.flag(row.flag) {
			return "on"
		}
		return "off"
	}
}

// handleSettingsKey processes keyboard input for the settings view.
func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.settingsRows()

	switch msg.String() {
	case "enter", " ":
		m.changeSetting(rows[m.settingsRow])
		return m, nil

	case "d":
		m.clearSetting(rows[m.settingsRow])
		return m, nil

	case "r":
		store := m.stores.Settings
		return m, m.actionCmd("reset settings", "Settings reset.", store.ResetRemote)
	}

	m.settingsRow = moveRow(msg.String(), m.settingsRow, len(rows), len(rows))
	return m, nil
}

// changeSetting advances the selected setting to its next value.
func (m *Model) changeSetting(row settingsRow) {
	var err error
	switch row.kind {
	case rowTheme:
		m.toggleTheme()
		return
	case rowHeight:
		err = m.settings.table.SetPartial(map[string]any{"rowHeight": next(rowHeights, m.snap.table.rowHeight())})
	case rowPageSize:
		err = m.settings.table.SetPartial(map[string]any{"pageSize": next(pageSizes, m.snap.table.pageSize())})
		m.offset = 0
	case rowFlag:
		err = m.settings.flags.Update(func(f FeatureFlags) FeatureFlags {
			out := maps.Clone(f)
			if out == nil {
				out = FeatureFlags{}
			}
			out[row.flag] = !out[row.flag]
			return out
		})
	}
	if err != nil {
		m.handler.Handle(err, errs.Options{Component: "ui", PublicMessage: "Could not save " + strings.ToLower(row.label) + "."})
	}
	m.refresh()
}

// clearSetting drops the stored value so the default applies again.
func (m *Model) clearSetting(row settingsRow) {
	var err error
	switch row.kind {
	case rowTheme:
		m.settings.theme.Remove()
	case rowHeight:
		err = m.settings.table.SetPartial(map[string]any{"rowHeight": nil})
	case rowPageSize:
		err = m.settings.table.SetPartial(map[string]any{"pageSize": nil})
		m.offset = 0
	case rowFlag:
		flags := maps.Clone(m.snap.flags)
		if _, ok := flags[row.flag]; !ok {
			return
		}
		delete(flags, row.flag)
		if len(flags) == 0 {
			m.settings.flags.Remove()
		} else {
			err = m.settings.flags.Set(flags)
		}
	}
	if err != nil {
		m.handler.Handle(err, errs.Options{Component: "ui", PublicMessage: "Could not clear " + strings.ToLower(row.label) + "."})
	}
	m.refresh()
}

// renderSettings renders the user settings list.
func (m Model) renderSettings() string {
	height := m.contentHeight()
	width := m.width
	inner := width - 2
	bgColor := m.paneBg(true)

	title := "Settings"
	if !m.snap.settingsLoaded {
		title += " (not synced)"
	}

	labelWidth := 28
	var lines []string
	for i, row := range m.settingsRows() {
		text := fmt.Sprintf("  %s %s", padRight(row.label, labelWidth), m.settingValue(row))
		lines = append(lines, m.renderListLine(text, inner, bgColor, i == m.settingsRow, false))
	}
	lines = append(lines, "",
		m.mutedLine("  enter change  ·  d clear  ·  r reset all settings on the master", inner, bgColor))
	if key := m.selectedSettingKey(); key != "" {
		lines = append(lines, m.mutedLine("  stored at "+key, inner, bgColor))
	}

	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}

func (m Model) selectedSettingKey() string {
	rows := m.settingsRows()
	if m.settingsRow >= len(rows) {
		return ""
	}
	switch rows[m.settingsRow].kind {
	case rowTheme:
		return m.settings.theme.Key() + ".mode"
	case rowHeight:
		return m.settings.table.Key() + ".rowHeight"
	case rowPageSize:
		return m.settings.table.Key() + ".pageSize"
	default:
		return m.settings.flags.Key() + "." + settings.RootField
	}
}
