package dashboard

import "github.com/charmbracelet/lipgloss"

// Styles.
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	LabelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	DimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	SelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	AlertStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	PromptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	BarStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	ChartStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33")) // #007bff-ish
	PositiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	NegativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	ButtonStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	BusyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8")).Padding(0, 1)
	SectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
)

// ChangeStyle returns the style for a change class.
func ChangeStyle(class string) lipgloss.Style {
	if class == ClassNegative {
		return NegativeStyle
	}
	return PositiveStyle
}
