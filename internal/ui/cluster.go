package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/stores"
)

// renderCluster renders slot usage on the left and agents on the right.
// Resource pools take the lower left pane when the pools flag is on.
func (m Model) renderCluster() string {
	height := m.contentHeight()
	leftWidth := m.width / 2
	if m.width >= LayoutWideWidth {
		leftWidth = m.width * 2 / 5
	}
	rightWidth := m.width - leftWidth

	var left string
	if m.snap.flag(FlagShowPools) {
		top := max(height/2, 6)
		bottom := height - top
		left = lipgloss.JoinVertical(lipgloss.Left,
			m.renderTitledBox("Slots", m.renderOverview(leftWidth-2, top-2), leftWidth, top, false),
			m.renderTitledBox("Resource Pools", m.renderPools(leftWidth-2, bottom-2), leftWidth, bottom, false),
		)
	} else {
		left = m.renderTitledBox("Slots", m.renderOverview(leftWidth-2, height-2), leftWidth, height, false)
	}

	agentsTitle := "Agents"
	if agents, ok := m.snap.agents.Value(); ok {
		agentsTitle = fmt.Sprintf("Agents (%d)", len(agents))
	}
	right := m.renderTitledBox(agentsTitle, m.renderAgents(rightWidth-2, height-2), rightWidth, height, true)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderOverview(width, height int) string {
	bgColor := m.paneBg(false)
	if text, ok := placeholder(m.snap.overview, "agents"); !ok {
		return m.mutedLine(text, width, bgColor)
	}
	o := orZero(m.snap.overview)
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	barWidth := max(min(width-30, 30), 5)
	line := func(label string, t stores.SlotTally) string {
		return bg.Render(padRight(label, 10), styles.AccentText) + bg.Space() +
			bg.Render(bar(t.Utilization(), barWidth), m.utilStyle(t.Utilization()).Background(lipgloss.Color(bgColor))) + bg.Space() +
			bg.Render(fmt.Sprintf("%d/%d used", t.Allocated, t.Total-t.Disabled), styles.Text) + bg.Spaces(2) +
			bg.Render(fmt.Sprintf("%d free", t.Free()), styles.MutedText)
	}

	lines := []string{
		bg.Render("Agents", styles.MutedText) + bg.Space() + bg.Render(fmt.Sprintf("%d", o.Agents), styles.Text) + bg.Spaces(2) +
			bg.Render("Slots", styles.MutedText) + bg.Space() + bg.Render(fmt.Sprintf("%d", o.Overall.Total), styles.Text),
		"",
		line("overall", o.Overall),
	}
	for _, typ := range o.DeviceTypes() {
		if len(lines) >= height {
			break
		}
		lines = append(lines, line(typ, o.ByType[typ]))
	}
	if o.Overall.Disabled > 0 && len(lines) < height {
		lines = append(lines, "", bg.Render(fmt.Sprintf("%d slots disabled", o.Overall.Disabled), styles.WarningText))
	}
	for i, l := range lines {
		lines[i] = bg.FillLine(l, width)
	}
	return strings.Join(lines, "\n")
}

func (m Model) utilStyle(u float64) lipgloss.Style {
	switch {
	case u >= 0.9:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Danger))
	case u >= 0.6:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Success))
	}
}

func (m Model) renderAgents(width, height int) string {
	bgColor := m.paneBg(true)
	if text, ok := placeholder(m.snap.agents, "agents"); !ok {
		return m.mutedLine(text, width, bgColor)
	}
	agents := orZero(m.snap.agents)
	if len(agents) == 0 {
		return m.mutedLine("No agents connected", width, bgColor)
	}

	idWidth := max(width-36, 10)
	var lines []string
	for _, a := range agents {
		if len(lines) >= height {
			break
		}
		t := stores.Tally([]api.Agent{a}).Overall
		status := "enabled"
		switch {
		case !a.Enabled:
			status = "disabled"
		case a.Draining:
			status = "draining"
		}
		text := fmt.Sprintf("%s %2d/%-2d %-9s %s", padRight(a.ID, idWidth), t.Allocated, t.Total, status, strings.Join(a.ResourcePools, ","))
		lines = append(lines, m.renderListLine(text, width, bgColor, false, !a.Enabled))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPools(width, height int) string {
	bgColor := m.paneBg(false)
	if text, ok := placeholder(m.snap.pools, "resource pools"); !ok {
		return m.mutedLine(text, width, bgColor)
	}
	pools := orZero(m.snap.pools)
	if len(pools) == 0 {
		return m.mutedLine("No resource pools", width, bgColor)
	}

	nameWidth := max(width-24, 8)
	var lines []string
	for _, p := range pools {
		if len(lines) >= height {
			break
		}
		name := p.Name
		if p.DefaultComputePool {
			name += " *"
		}
		text := fmt.Sprintf("%s %3d/%-3d %s", padRight(name, nameWidth), p.SlotsUsed, p.SlotsAvailable, p.SlotType)
		lines = append(lines, m.renderListLine(text, width, bgColor, false, false))
	}
	return strings.Join(lines, "\n")
}
