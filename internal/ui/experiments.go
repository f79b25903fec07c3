package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/stores"
)

// handleExperimentsKey processes keyboard input for the experiments view.
func (m Model) handleExperimentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res := orZero(m.snap.experiments)
	pageSize := m.snap.table.pageSize()

	switch msg.String() {
	case "/":
		m.filtering = true
		m.filterErr = nil
		m.filterInput.SetValue(m.snap.table.Filter)
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case "o":
		key := next(stores.SortKeys, m.snap.table.sortKey())
		m.saveTable(map[string]any{"sortKey": string(key)})
		return m, nil

	case "O":
		m.saveTable(map[string]any{"sortDesc": !m.snap.table.SortDesc})
		return m, nil

	case "]", "pgdown":
		if m.offset+pageSize < res.Total {
			m.offset += pageSize
			m.expRow = 0
			m.refresh()
		}
		return m, nil

	case "[", "pgup":
		if m.offset > 0 {
			m.offset = max(m.offset-pageSize, 0)
			m.expRow = 0
			m.refresh()
		}
		return m, nil

	case "esc":
		m.currentView = ViewWorkspaces
		m.focusedPane = 1
		return m, nil
	}

	m.expRow = moveRow(msg.String(), m.expRow, len(res.Rows), m.contentHeight()-4)
	return m, nil
}

// handleFilterKey edits the filter expression. Enter stores it once it
// compiles; esc discards the edit.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.filtering = false
		m.filterErr = nil
		m.filterInput.Blur()
		return m, nil

	case tea.KeyEnter:
		source := strings.TrimSpace(m.filterInput.Value())
		if _, err := stores.CompileFilter(source); err != nil {
			m.filterErr = err
			return m, nil
		}
		m.filtering = false
		m.filterErr = nil
		m.filterInput.Blur()
		m.offset = 0
		m.expRow = 0
		m.saveTable(map[string]any{"filter": source})
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

// saveTable writes changed table settings and re-runs the query.
func (m *Model) saveTable(patch map[string]any) {
	if err := m.settings.table.SetPartial(patch); err != nil {
		m.handler.Handle(err, errs.Options{Component: "ui", PublicMessage: "Could not save table settings."})
	}
	m.refresh()
}

type column struct {
	title string
	width int
}

// experimentColumns sizes the table to width. User and start columns only
// appear on wide terminals.
func (m Model) experimentColumns(width int) []column {
	cols := []column{
		{"ID", 6},
		{"Name", 0},
		{"State", 18},
		{"Progress", 16},
		{"Trials", 6},
	}
	if m.snap.table.rowHeight() == RowCompact {
		cols[3].width = 8
	}
	if width >= LayoutWideWidth {
		cols = append(cols, column{"User", 12}, column{"Started", 16})
	}
	used := 0
	for _, c := range cols {
		used += c.width + 1
	}
	cols[1].width = max(width-used, 10)
	return cols
}

// renderExperiments renders the experiment table of the open project.
func (m Model) renderExperiments() string {
	height := m.contentHeight()
	width := m.width
	inner := width - 2

	title := "Experiments"
	if m.snap.project != nil {
		title = "Experiments · " + m.snap.project.Name
	}
	if f := m.snap.table.Filter; f != "" {
		title += " [" + truncate(f, 30) + "]"
	}

	bodyHeight := height - 2
	var lines []string
	if m.filtering {
		lines = append(lines, m.renderFilterLine(inner))
		bodyHeight--
	}
	lines = append(lines, m.renderExperimentTable(inner, bodyHeight)...)

	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}

func (m Model) renderFilterLine(width int) string {
	bgColor := m.paneBg(true)
	line := m.filterInput.View()
	if m.filterErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Danger)).Background(lipgloss.Color(bgColor))
		line += "  " + errStyle.Render(truncate(m.filterErr.Error(), max(width/2, 10)))
	}
	return NewBgStyle(bgColor).FillLine(line, width)
}

func (m Model) renderExperimentTable(width, height int) []string {
	bgColor := m.paneBg(true)
	if m.projectID == 0 {
		return []string{m.mutedLine("Open a project from the workspaces view", width, bgColor)}
	}
	if text, ok := placeholder(m.snap.experiments, "experiments"); !ok {
		return []string{m.mutedLine(text, width, bgColor)}
	}
	res := orZero(m.snap.experiments)
	cols := m.experimentColumns(width)

	var lines []string
	lines = append(lines, m.renderHeaderRow(cols, width, bgColor))

	if len(res.Rows) == 0 {
		msg := "No experiments"
		if m.snap.table.Filter != "" {
			msg = "No experiments match the filter"
		}
		return append(lines, m.mutedLine(msg, width, bgColor))
	}

	rowLines := 1
	if m.snap.table.rowHeight() == RowComfortable {
		rowLines = 2
	}
	visible := max((height-2)/rowLines, 1)
	start := scrollStart(m.expRow, visible, len(res.Rows))
	for i := start; i < len(res.Rows) && i-start < visible; i++ {
		lines = append(lines, m.renderExperimentRow(res.Rows[i], cols, width, bgColor, i == m.expRow)...)
	}

	for len(lines) < height-1 {
		lines = append(lines, "")
	}
	return append(lines, m.renderTableFooter(res, width, bgColor))
}

func (m Model) renderHeaderRow(cols []column, width int, bgColor string) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = padRight(c.title, c.width)
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Accent)).
		Background(lipgloss.Color(bgColor)).
		Bold(true)
	return style.Render(padRight(strings.Join(cells, " "), width))
}

func (m Model) renderExperimentRow(e api.Experiment, cols []column, width int, bgColor string, selected bool) []string {
	rowBg := bgColor
	fg := m.theme.Text
	if selected {
		rowBg = m.theme.SelectionBg
		fg = m.theme.SelectionText
	}
	bg := NewBgStyle(rowBg)
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
	if e.Archived {
		textStyle = textStyle.Foreground(lipgloss.Color(m.theme.Muted))
	}
	stateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StateColor(e.State)))

	cells := make([]string, 0, len(cols))
	for _, c := range cols {
		var cell string
		style := textStyle
		switch c.title {
		case "ID":
			cell = fmt.Sprintf("%d", e.ID)
		case "Name":
			cell = e.Name
		case "State":
			cell = titleCase(e.State)
			style = stateStyle
		case "Progress":
			cell = m.formatProgress(e.Progress, c.width)
		case "Trials":
			cell = fmt.Sprintf("%d", e.NumTrials)
		case "User":
			cell = e.Username
		case "Started":
			cell = m.formatStarted(e)
		}
		cells = append(cells, style.Background(lipgloss.Color(rowBg)).Render(padRight(cell, c.width)))
	}

	lines := []string{bg.FillLine(bg.Join(cells, " "), width)}
	if m.snap.table.rowHeight() == RowComfortable {
		detail := e.Description
		if len(e.Labels) > 0 {
			detail = strings.TrimSpace(detail + "  #" + strings.Join(e.Labels, " #"))
		}
		muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Background(lipgloss.Color(rowBg))
		lines = append(lines, bg.FillLine(muted.Render("       "+truncate(detail, max(width-7, 0))), width))
	}
	return lines
}

func (m Model) formatProgress(progress float64, width int) string {
	pct := fmt.Sprintf("%3.0f%%", progress*100)
	if width < 12 {
		return pct
	}
	return bar(progress, width-5) + " " + pct
}

func (m Model) formatStarted(e api.Experiment) string {
	started := e.Started()
	if started.IsZero() {
		return "-"
	}
	if m.snap.flag(FlagRelativeTimes) {
		return relativeTime(started, m.snap.updated)
	}
	return started.Local().Format("2006-01-02 15:04")
}

func (m Model) renderTableFooter(res stores.TableResult, width int, bgColor string) string {
	first, last := 0, 0
	if len(res.Rows) > 0 {
		first = m.offset + 1
		last = m.offset + len(res.Rows)
	}
	order := "↑"
	if m.snap.table.SortDesc {
		order = "↓"
	}
	text := fmt.Sprintf("%d-%d of %d  ·  sort %s %s  ·  page %d  ·  rows %s",
		first, last, res.Total, m.snap.table.sortKey(), order, m.snap.table.pageSize(), m.snap.table.rowHeight())
	return m.mutedLine(text, width, bgColor)
}
