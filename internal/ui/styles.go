package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorError     = lipgloss.Color("196") // Red
	colorLink      = lipgloss.Color("39")  // Blue
)

// TabActive style for the selected tab label.
var TabActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// TabInactive style for the other tab labels.
var TabInactive = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// SelectedItem style for the currently highlighted row.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary)

// NormalItem style for unselected rows.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// PostHeader style for the "No.N name ID" line of a result.
var PostHeader = lipgloss.NewStyle().
	Foreground(colorHighlight)

// PostMeta style for dates and ids.
var PostMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// LinkStyle for image urls and share links.
var LinkStyle = lipgloss.NewStyle().
	Foreground(colorLink).
	Underline(true)

// UserLabel style for the user side of the chat transcript.
var UserLabel = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorSuccess)

// AssistantLabel style for the assistant side of the chat transcript.
var AssistantLabel = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary)

// CitationStyle for source lines under an answer.
var CitationStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	PaddingLeft(2)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

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

// IndexStatusStyle for the index status line above the chat.
var IndexStatusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("153")).
	Padding(0, 1)

// FormLabel style for filter form labels.
var FormLabel = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Width(10)

// FormLabelActive style for the focused field's label.
var FormLabelActive = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true).
	Width(10)

// CountStyle for result totals.
var CountStyle = lipgloss.NewStyle().
	Foreground(colorSuccess)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
