package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/mlconsole/internal/api"
)

func (m Model) selectedWorkspace() (api.Workspace, bool) {
	list := orZero(m.snap.workspaces)
	if m.workspaceRow < 0 || m.workspaceRow >= len(list) {
		return api.Workspace{}, false
	}
	return list[m.workspaceRow], true
}

func (m Model) selectedProject() (api.Project, bool) {
	list := orZero(m.snap.projects)
	if m.projectRow < 0 || m.projectRow >= len(list) {
		return api.Project{}, false
	}
	return list[m.projectRow], true
}

// handleWorkspacesKey processes keyboard input for the workspaces view.
func (m Model) handleWorkspacesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.contentHeight() - 2

	switch msg.String() {
	case "esc", "left":
		m.focusedPane = 0
		return m, nil
	case "right":
		if m.workspaceID > 0 {
			m.focusedPane = 1
		}
		return m, nil
	case "p":
		ws, ok := m.selectedWorkspace()
		if !ok {
			return m, nil
		}
		return m, m.pinCmd(ws)
	case "enter":
		if m.focusedPane == 0 {
			return m.openWorkspace()
		}
		return m.openProject()
	}

	if m.focusedPane == 0 {
		n := len(orZero(m.snap.workspaces))
		m.workspaceRow = moveRow(msg.String(), m.workspaceRow, n, page)
	} else {
		n := len(orZero(m.snap.projects))
		m.projectRow = moveRow(msg.String(), m.projectRow, n, page)
	}
	return m, nil
}

// openWorkspace starts watching the selected workspace's projects.
func (m Model) openWorkspace() (tea.Model, tea.Cmd) {
	ws, ok := m.selectedWorkspace()
	if !ok {
		return m, nil
	}
	if ws.ID != m.workspaceID {
		m.workspaceID = ws.ID
		m.projectRow = 0
	}
	m.focusedPane = 1
	m.refresh()

	projects := m.stores.Projects
	ctx, opts, id := m.ctx, m.watch, ws.ID
	return m, func() tea.Msg {
		projects.Watch(ctx, id, opts)
		return nil
	}
}

// openProject switches to the experiments of the selected project.
func (m Model) openProject() (tea.Model, tea.Cmd) {
	p, ok := m.selectedProject()
	if !ok {
		return m, nil
	}
	if p.ID != m.projectID {
		m.projectID = p.ID
		m.offset = 0
		m.expRow = 0
	}
	m.currentView = ViewExperiments
	m.refresh()

	experiments := m.stores.Experiments
	ctx, opts, id := m.ctx, m.watch, p.ID
	return m, func() tea.Msg {
		experiments.Watch(ctx, id, opts)
		return nil
	}
}

func (m Model) pinCmd(ws api.Workspace) tea.Cmd {
	workspaces := m.stores.Workspaces
	if ws.Pinned {
		return m.actionCmd("unpin workspace", fmt.Sprintf("Unpinned %s.", ws.Name), func(ctx context.Context) error {
			return workspaces.Unpin(ctx, ws.ID)
		})
	}
	return m.actionCmd("pin workspace", fmt.Sprintf("Pinned %s.", ws.Name), func(ctx context.Context) error {
		return workspaces.Pin(ctx, ws.ID)
	})
}

// renderWorkspaces renders the workspace list beside the open workspace's
// projects.
func (m Model) renderWorkspaces() string {
	height := m.contentHeight()
	leftWidth := m.width * 2 / 5
	if m.width < LayoutCompactWidth {
		leftWidth = m.width / 2
	}
	rightWidth := m.width - leftWidth

	wsTitle := "Workspaces"
	if m.snap.flag(FlagShowArchived) {
		wsTitle += " (all)"
	}
	left := m.renderTitledBox(wsTitle, m.renderWorkspaceList(leftWidth-2, height-2, m.focusedPane == 0), leftWidth, height, m.focusedPane == 0)

	projTitle := "Projects"
	if ws, ok := m.workspaceByID(m.workspaceID); ok {
		projTitle = "Projects · " + ws.Name
	}
	right := m.renderTitledBox(projTitle, m.renderProjectList(rightWidth-2, height-2, m.focusedPane == 1), rightWidth, height, m.focusedPane == 1)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) workspaceByID(id int) (api.Workspace, bool) {
	for _, ws := range orZero(m.snap.workspaces) {
		if ws.ID == id {
			return ws, true
		}
	}
	return api.Workspace{}, false
}

func (m Model) renderWorkspaceList(width, height int, focused bool) string {
	bgColor := m.paneBg(focused)
	if text, ok := placeholder(m.snap.workspaces, "workspaces"); !ok {
		return m.mutedLine(text, width, bgColor)
	}
	list := orZero(m.snap.workspaces)
	if len(list) == 0 {
		return m.mutedLine("No workspaces", width, bgColor)
	}

	nameWidth := max(width-16, 8)
	start := scrollStart(m.workspaceRow, height, len(list))
	var lines []string
	for i := start; i < len(list) && len(lines) < height; i++ {
		ws := list[i]
		marker := " "
		if ws.Pinned {
			marker = "★"
		}
		name := ws.Name
		if ws.Archived {
			name += " (archived)"
		}
		if ws.ID == m.workspaceID {
			name = "▸ " + name
		}
		text := fmt.Sprintf("%s %s %4d proj", marker, padRight(name, nameWidth), ws.NumProjects)
		lines = append(lines, m.renderListLine(text, width, bgColor, focused && i == m.workspaceRow, ws.Archived))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderProjectList(width, height int, focused bool) string {
	bgColor := m.paneBg(focused)
	if m.workspaceID == 0 {
		return m.mutedLine("Press enter on a workspace", width, bgColor)
	}
	if text, ok := placeholder(m.snap.projects, "projects"); !ok {
		return m.mutedLine(text, width, bgColor)
	}
	list := orZero(m.snap.projects)
	if len(list) == 0 {
		return m.mutedLine("No projects", width, bgColor)
	}

	nameWidth := max(width-24, 8)
	start := scrollStart(m.projectRow, height, len(list))
	var lines []string
	for i := start; i < len(list) && len(lines) < height; i++ {
		p := list[i]
		name := p.Name
		if p.ID == m.projectID {
			name = "▸ " + name
		}
		text := fmt.Sprintf("%s %4d exp %3d active", padRight(name, nameWidth), p.NumExperiments, p.NumActiveExperiments)
		lines = append(lines, m.renderListLine(text, width, bgColor, focused && i == m.projectRow, p.Archived))
	}
	return strings.Join(lines, "\n")
}

// scrollStart returns the first visible index keeping selected on screen.
func scrollStart(selected, height, n int) int {
	if height <= 0 || n <= height || selected < height {
		return 0
	}
	return min(selected-height+1, n-height)
}
