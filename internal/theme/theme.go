package theme

import "github.com/charmbracelet/lipgloss"

// Color palette, terminal-friendly.
var (
	ColorPrimary   = lipgloss.Color("63")  // Purple
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("245") // Light gray
	ColorHighlight = lipgloss.Color("229") // Yellow
)

// Shared styles used for report banners and status lines.
var (
	StyleTitle   lipgloss.Style
	StyleSection lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleError   lipgloss.Style
	StyleSuccess lipgloss.Style
)

// Names accepted by Apply.
const (
	Default = "default"
	Plain   = "plain"
)

func init() {
	Apply(Default)
}

// Apply switches the shared styles. Unknown names fall back to Default;
// Plain disables all styling.
func Apply(name string) {
	if name == Plain {
		StyleTitle = lipgloss.NewStyle()
		StyleSection = lipgloss.NewStyle()
		StyleMuted = lipgloss.NewStyle()
		StyleError = lipgloss.NewStyle()
		StyleSuccess = lipgloss.NewStyle()
		return
	}

	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	StyleSection = lipgloss.NewStyle().
		Foreground(ColorHighlight).
		Bold(true)

	StyleMuted = lipgloss.NewStyle().
		Foreground(ColorMuted)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
		Foreground(ColorSuccess)
}
