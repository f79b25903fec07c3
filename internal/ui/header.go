package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/stores"
)

const logoText = "mlconsole"

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	b.WriteString(m.renderContent())
	b.WriteString("\n")

	// Notifications
	b.WriteString(m.renderStatusLine())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCluster:
		return m.renderCluster()
	case ViewWorkspaces:
		return m.renderWorkspaces()
	case ViewExperiments:
		return m.renderExperiments()
	case ViewSettings:
		return m.renderSettings()
	default:
		return ""
	}
}

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render(logoText, styles.Logo)}

	if info := m.snap.info; info.ClusterName != "" {
		cluster := info.ClusterName
		if !compact && info.Version != "" {
			cluster += " v" + info.Version
		}
		parts = append(parts, bg.Render(cluster, styles.Text))
	}

	parts = append(parts, m.sessionStatus(styles, bg))

	if o, ok := m.snap.overview.Value(); ok {
		label := "Slots:"
		if compact {
			label = "S:"
		}
		parts = append(parts,
			bg.Render(label, styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d/%d", o.Overall.Allocated, o.Overall.Total-o.Overall.Disabled), styles.Text),
		)
	}

	if tc, ok := m.snap.tasks.Value(); ok {
		label := "Tasks:"
		if compact {
			label = "T:"
		}
		parts = append(parts,
			bg.Render(label, styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", tc.Total()), styles.Text),
		)
	}

	if !compact && !m.snap.updated.IsZero() {
		parts = append(parts, bg.Render(m.snap.updated.Format("15:04:05"), styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) sessionStatus(styles Styles, bg BgStyle) string {
	return loadable.Match(m.snap.session, loadable.Matcher[stores.Session, string]{
		Loaded: func(s stores.Session) string {
			if !s.Authenticated {
				return bg.Render("● signed out", styles.DangerText)
			}
			return bg.Render("●", styles.SuccessText) + bg.Space() + bg.Render(s.User.Name(), styles.Text)
		},
		NotLoaded: func() string { return bg.Render("● connecting", styles.WarningText) },
		Failed:    func(err error) string { return bg.Render("● "+classifyConnectionError(err), styles.DangerText) },
	})
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewWorkspaces:
		commands = []cmd{
			{"enter", "Open"},
			{"p", "Pin"},
			{"esc", "Back"},
			{"j/k", "Navigate"},
		}
	case ViewExperiments:
		commands = []cmd{
			{"/", "Filter"},
			{"o", "Sort: " + string(m.snap.table.sortKey())},
			{"O", "Order"},
			{"[/]", "Page"},
			{"esc", "Projects"},
		}
	case ViewSettings:
		commands = []cmd{
			{"enter", "Change"},
			{"d", "Clear"},
			{"r", "Reset all"},
		}
	default:
		commands = []cmd{
			{"R", "Refresh"},
		}
	}
	commands = append(commands, cmd{"tab", "Views"}, cmd{"?", "More"})

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+2)
	for _, v := range viewOrder {
		style := styles.MutedText
		if v == m.currentView {
			style = styles.AccentText.Bold(true)
		}
		segments = append(segments, bg.Render(v.String(), style))
	}
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}

// renderStatusLine shows the newest active notification.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	if len(m.snap.notes) == 0 {
		return bg.FillLine("", m.width)
	}
	n := m.snap.notes[len(m.snap.notes)-1]
	style := styles.InfoText
	switch n.Level {
	case errs.LevelWarn:
		style = styles.WarningText
	case errs.LevelError:
		style = styles.DangerText
	}
	text := truncate(n.Message, max(m.width-4, 10))
	if extra := len(m.snap.notes) - 1; extra > 0 {
		text += fmt.Sprintf(" (+%d)", extra)
	}
	return lipgloss.NewStyle().Width(m.width).Background(lipgloss.Color(m.theme.Background)).Render(" " + bg.Render(text, style))
}
