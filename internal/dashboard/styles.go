package dashboard

import "github.com/charmbracelet/lipgloss"

// Dashboard colors. Series colors come from the frames themselves.
const (
	ColorBorder        = lipgloss.Color("#2A2A4A")
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")
	ColorAccent        = lipgloss.Color("#FF2E97")
	ColorWarning       = lipgloss.Color("#FFAA00")
	ColorCritical      = lipgloss.Color("#FF0055")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	FrozenBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1)

	ChartStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// colorStyle returns a foreground style for a "#rrggbb" color. An empty color
// falls back to the secondary text color.
func colorStyle(hex string) lipgloss.Style {
	if hex == "" {
		return LabelStyle
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}
