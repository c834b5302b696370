package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorBG        = lipgloss.Color("#1a1a1a")
	colorSidebar   = lipgloss.Color("#212121")
	colorCard      = lipgloss.Color("#2b2b2b")
	colorAccent    = lipgloss.Color("#3B8ED0")
	colorSuccess   = lipgloss.Color("#2CC985")
	colorDanger    = lipgloss.Color("#E04F5F")
	colorText      = lipgloss.Color("#FFFFFF")
	colorTextDim   = lipgloss.Color("#A0A0A0")
	colorHighlight = lipgloss.Color("#FFD43B")
)

const sidebarWidth = 24

var categoryIcons = map[string]string{
	"Mining":        "⛏",
	"Construction":  "🧱",
	"Travel":        "🚇",
	"Combat":        "⚔",
	"Farming":       "🌾",
	"Settings":      "⚙",
	"Uncategorized": "📂",
}

func categoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return categoryIcons["Uncategorized"]
}

var (
	sidebarStyle = lipgloss.NewStyle().
			Background(colorSidebar).
			Padding(1, 1).
			Width(sidebarWidth)

	sidebarItemStyle     = lipgloss.NewStyle().Foreground(colorTextDim)
	sidebarSelectedStyle = lipgloss.NewStyle().Foreground(colorText).Background(colorAccent).Bold(true)
	logoStyle            = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	headerStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true).MarginBottom(1)
	dimStyle    = lipgloss.NewStyle().Foreground(colorTextDim)
	keyStyle    = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)

	cardStyle = lipgloss.NewStyle().
			Background(colorCard).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCard).
			Padding(0, 1)
	cardSelectedStyle = cardStyle.BorderForeground(colorAccent)

	buttonStyle        = lipgloss.NewStyle().Foreground(colorText).Background(colorAccent).Padding(0, 1)
	buttonDangerStyle  = buttonStyle.Background(colorDanger)
	buttonIdleStyle    = lipgloss.NewStyle().Foreground(colorTextDim).Padding(0, 1)
	buttonFocusedStyle = lipgloss.NewStyle().Underline(true).Bold(true)

	rowSelectedStyle = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)

	statusStyle        = lipgloss.NewStyle().Background(colorSidebar).Foreground(colorTextDim).Padding(0, 1)
	statusRunningStyle = statusStyle.Foreground(colorSuccess)
	statusErrorStyle   = statusStyle.Foreground(colorDanger)

	logPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(colorCard).
			Foreground(colorTextDim)

	bannerStyle = lipgloss.NewStyle().Foreground(colorTextDim).Background(colorBG).Padding(0, 1)
)
