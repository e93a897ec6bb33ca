package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorAccent    = lipgloss.Color("46")  // Terminal green
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorUp        = lipgloss.Color("78")  // Green
	colorDown      = lipgloss.Color("196") // Red
	colorWarn      = lipgloss.Color("214") // Amber
)

// Brand is the header title.
var Brand = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorAccent)

// Clock style for the header clock.
var Clock = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ActiveTab style for the selected category.
var ActiveTab = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorAccent).
	Padding(0, 1)

// InactiveTab style for the other categories.
var InactiveTab = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// LiveBadge marks LIVE polling.
var LiveBadge = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorAccent)

// PausedBadge marks PAUSED polling.
var PausedBadge = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWarn)

// SelectedItem style for the currently highlighted item.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected items.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// MetaItem style for source and time columns.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorMuted)

// Panel wraps the side panels.
var Panel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// PanelTitle style for panel headings.
var PanelTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// PriceUp and PriceDown color 24h changes.
var (
	PriceUp   = lipgloss.NewStyle().Foreground(colorUp)
	PriceDown = lipgloss.NewStyle().Foreground(colorDown)
)

// AlertWarn and AlertError style alert lines.
var (
	AlertWarn  = lipgloss.NewStyle().Foreground(colorWarn)
	AlertError = lipgloss.NewStyle().Foreground(colorDown)
)

// TickerLine style for the latest-headlines line.
var TickerLine = lipgloss.NewStyle().
	Foreground(colorAccent).
	Background(lipgloss.Color("234"))

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// DebugPanel wraps the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 1)

// DebugHeaderStyle for debug overlay section headings.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
