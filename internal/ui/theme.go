package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme modes stored in the theme setting.
const (
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	Name string
	Mode string

	// Base colors
	Background string // Outermost background
	Surface    string // Header and command bar
	SurfaceAlt string // Unfocused panes
	FocusBg    string // Focused pane

	// Selected rows
	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	// Text colors
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StateColors maps lowercase experiment states to colors.
	StateColors map[string]string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		InfoText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style
}

// WithBackground returns a copy of Styles with every text style on bgColor.
// Segments rendered without an explicit background leave gaps.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	return Styles{
		Text:        s.Text.Background(bg),
		MutedText:   s.MutedText.Background(bg),
		FaintText:   s.FaintText.Background(bg),
		AccentText:  s.AccentText.Background(bg),
		SuccessText: s.SuccessText.Background(bg),
		WarningText: s.WarningText.Background(bg),
		DangerText:  s.DangerText.Background(bg),
		InfoText:    s.InfoText.Background(bg),
		Header:      s.Header.Background(bg),
		Logo:        s.Logo.Background(bg),
	}
}

// StateColor returns the color for an experiment state.
func (t Theme) StateColor(state string) string {
	if c, ok := t.StateColors[strings.ToLower(strings.TrimSpace(state))]; ok {
		return c
	}
	return t.Muted
}

// ThemeForMode returns the palette for a mode. Unknown modes get the dark one.
func ThemeForMode(mode string) Theme {
	if strings.EqualFold(strings.TrimSpace(mode), ModeLight) {
		return dawnfoxTheme()
	}
	return nightfoxTheme()
}

// NextMode flips between dark and light.
func NextMode(mode string) string {
	if strings.EqualFold(strings.TrimSpace(mode), ModeLight) {
		return ModeDark
	}
	return ModeLight
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: "Nightfox",
		Mode: ModeDark,

		Background: "#131a24", // bg0
		Surface:    "#192330", // bg1
		SurfaceAlt: "#212e3f", // bg2
		FocusBg:    "#29394f", // bg3

		SelectionBg:   "#2b3b51", // sel0
		SelectionText: "#cdcecf", // fg1

		Border:      "#39506d", // bg4
		BorderFocus: "#719cd6", // blue

		Text:    "#cdcecf", // fg1
		Muted:   "#738091", // comment
		Faint:   "#71839b", // fg3
		Accent:  "#719cd6", // blue
		Success: "#81b29a", // green
		Warning: "#dbc074", // yellow
		Danger:  "#c94f6d", // red
		Info:    "#63cdcf", // cyan

		StateColors: map[string]string{
			"queued":             "#738091", // comment
			"pulling":            "#63cdcf", // cyan
			"starting":           "#63cdcf", // cyan
			"running":            "#719cd6", // blue
			"active":             "#719cd6", // blue
			"paused":             "#dbc074", // yellow
			"stopping_completed": "#9d79d6", // magenta
			"stopping_canceled":  "#f4a261", // orange
			"stopping_error":     "#f4a261", // orange
			"stopping_killed":    "#f4a261", // orange
			"completed":          "#81b29a", // green
			"canceled":           "#71839b", // fg3
			"error":              "#c94f6d", // red
			"deleting":           "#f4a261", // orange
			"delete_failed":      "#c94f6d", // red
			"unspecified":        "#738091", // comment
		},
	}
}

func dawnfoxTheme() Theme {
	// Dawnfox, the light variant of the Nightfox family.
	return Theme{
		Name: "Dawnfox",
		Mode: ModeLight,

		Background: "#ebe5df", // bg0
		Surface:    "#faf4ed", // bg1
		SurfaceAlt: "#ebe0df", // bg2
		FocusBg:    "#ebdfe4", // bg3

		SelectionBg:   "#d0d8d8", // sel0
		SelectionText: "#575279", // fg1

		Border:      "#bdbfc9", // bg4
		BorderFocus: "#286983", // blue

		Text:    "#575279", // fg1
		Muted:   "#9893a5", // comment
		Faint:   "#8e8aa3", // fg3
		Accent:  "#286983", // blue
		Success: "#618774", // green
		Warning: "#ea9d34", // yellow
		Danger:  "#b4637a", // red
		Info:    "#56949f", // cyan

		StateColors: map[string]string{
			"queued":             "#9893a5", // comment
			"pulling":            "#56949f", // cyan
			"starting":           "#56949f", // cyan
			"running":            "#286983", // blue
			"active":             "#286983", // blue
			"paused":             "#ea9d34", // yellow
			"stopping_completed": "#907aa9", // magenta
			"stopping_canceled":  "#d7827e", // orange
			"stopping_error":     "#d7827e", // orange
			"stopping_killed":    "#d7827e", // orange
			"completed":          "#618774", // green
			"canceled":           "#8e8aa3", // fg3
			"error":              "#b4637a", // red
			"deleting":           "#d7827e", // orange
			"delete_failed":      "#b4637a", // red
			"unspecified":        "#9893a5", // comment
		},
	}
}
