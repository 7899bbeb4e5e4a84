package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/wifipanel/internal/version"
	"github.com/muurk/wifipanel/internal/view"
)

// AppName is shown in the header of every screen.
const AppName = "WIFI PANEL"

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 120
	DefaultHeight    = 24
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red
	TextColor      = lipgloss.Color("#FFFFFF") // White
	SubtleColor    = lipgloss.Color("#626262") // Gray
	BorderColor    = PrimaryColor
	HighlightColor = SecondaryColor
)

var (
	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	CaptionStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	HeaderCellStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1)

	SelectedCellStyle = lipgloss.NewStyle().
				Foreground(HighlightColor).
				Bold(true).
				Padding(0, 1)

	PropertyKeyStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Width(12)

	PropertyValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// Message styles, one per view.Snackbar context
	MessageStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	MessageTextStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor)

	MessageDangerStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	PromptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	MeterFullStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	MeterLowStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	MeterEmptyStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)
)

// GetTerminalSize returns the current terminal width and height
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, DefaultHeight
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if width > MaxContentWidth {
		width = MaxContentWidth
	}
	return width, height
}

// buildHeaderContent shows the app name, version and the device being managed.
func buildHeaderContent(device string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + version.Version)

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(device)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps content with the header, a help footer and
// an outer border sized to the terminal.
func RenderApplicationContainer(device, content, footerText string, width, height int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height < 10 {
		height = DefaultHeight
	}

	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1).
		Render(buildHeaderContent(device))

	footer := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1).
		Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText))

	body := lipgloss.NewStyle().
		Width(width - 4).
		Render(content)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Height(height - 2).
		AlignVertical(lipgloss.Top).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, bordered)
}

// MeterBar renders a 0-100 meter value as a ten cell bar. Values under the
// meter's low mark are drawn in the warning color.
func MeterBar(value int) string {
	const cells = 10
	filled := (value + 5) / cells
	if filled > cells {
		filled = cells
	}
	if filled < 0 {
		filled = 0
	}

	style := MeterFullStyle
	if value < view.MeterLow {
		style = MeterLowStyle
	}
	return style.Render(strings.Repeat("█", filled)) +
		MeterEmptyStyle.Render(strings.Repeat("░", cells-filled))
}
