package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/mlconsole/internal/loadable"
)

// paneBg is the background of a focused or unfocused pane.
func (m Model) paneBg(focused bool) string {
	if focused {
		return m.theme.FocusBg
	}
	return m.theme.SurfaceAlt
}

// renderTitledBox renders content in a box with the title embedded in the top border.
// ┌─── Title ───┐
// Focused boxes use BorderFocus and FocusBg.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr := m.theme.Border
	if focused {
		borderColorStr = m.theme.BorderFocus
	}
	bgColorStr := m.paneBg(focused)
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}

// renderListLine renders one selectable row of plain text.
func (m Model) renderListLine(text string, width int, bgColor string, selected, dim bool) string {
	text = padRight(text, width)
	if selected {
		return lipgloss.NewStyle().
			Background(lipgloss.Color(m.theme.SelectionBg)).
			Foreground(lipgloss.Color(m.theme.SelectionText)).
			Bold(true).
			Render(text)
	}
	fg := m.theme.Text
	if dim {
		fg = m.theme.Muted
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bgColor)).
		Foreground(lipgloss.Color(fg)).
		Render(text)
}

func (m Model) mutedLine(text string, width int, bgColor string) string {
	return NewBgStyle(bgColor).FillLine(
		lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Background(lipgloss.Color(bgColor)).Render(text),
		width,
	)
}

// placeholder describes a loadable that cannot be rendered yet. ok is true
// when the value is loaded.
func placeholder[T any](l loadable.Loadable[T], what string) (text string, ok bool) {
	return loadable.Match(l, loadable.Matcher[T, string]{
		NotLoaded: func() string { return "Loading " + what + "..." },
		Failed:    func(err error) string { return "Could not load " + what + ": " + err.Error() },
	}), l.IsLoaded()
}

// orZero returns the loaded value or the zero value of T.
func orZero[T any](l loadable.Loadable[T]) T {
	v, _ := l.Value()
	return v
}
