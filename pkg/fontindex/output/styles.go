package output

import "github.com/charmbracelet/lipgloss"

// ANSI 256-color palette shared by the pretty formatter.
var (
	colorPrimary = lipgloss.Color("39")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("214")
	colorDanger  = lipgloss.Color("196")
	colorMuted   = lipgloss.Color("245")
	colorText    = lipgloss.Color("255")
)

var (
	// queryBox frames the find query and match count.
	queryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// storeBox frames one index store in status output. A store that
	// failed to load gets a red border.
	storeBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			MarginTop(1)
	brokenStoreBox = storeBox.BorderForeground(colorDanger)

	storeNameStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle     = lipgloss.NewStyle().Foreground(colorText)
	freshStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorDanger)
	noMatchStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	pathStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	familyStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	subfamilyStyle = lipgloss.NewStyle().Foreground(colorText)

	columnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted)
)
