package tui

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/wifipanel/internal/view"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// NoRows is printed instead of an empty table.
const NoRows = "(none)"

// TableString renders rows as a bordered terminal table with a header taken
// from the first row's column names. selected highlights one row; pass -1 for
// none.
func TableString(rows []view.Row, selected int) string {
	if len(rows) == 0 {
		return CaptionStyle.Render(NoRows)
	}

	headers := make([]string, 0, len(rows[0].Cells))
	for _, c := range rows[0].Cells {
		headers = append(headers, c.Name)
	}

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, 0, len(r.Cells))
		for _, c := range r.Cells {
			cells = append(cells, cellText(c))
		}
		data = append(data, cells)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(BorderColor)).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return HeaderCellStyle
			case row == selected:
				return SelectedCellStyle
			}
			return CellStyle
		})
	return t.String()
}

func cellText(c view.Cell) string {
	if h, ok := c.Value.(template.HTML); ok {
		return string(h)
	}
	return fmt.Sprint(c.Value)
}

// SavedTable renders the saved networks.
func SavedTable(saved []wifiapi.SavedNetwork, selected int) string {
	return TableString(view.SavedRows(saved), selected)
}

// ScannedTable renders scan results with the strength column drawn as a bar.
func ScannedTable(scanned []wifiapi.ScannedNetwork, selected int) string {
	rows := view.ScannedRows(scanned)
	for i := range rows {
		rows[i].Cells[0].Value = MeterBar(view.StrengthValue(scanned[i].RSSI))
	}
	return TableString(rows, selected)
}

// StatusList renders status properties one per line, in device order.
func StatusList(status wifiapi.Status) string {
	if len(status) == 0 {
		return CaptionStyle.Render(NoRows)
	}
	lines := make([]string, 0, len(status))
	for _, p := range status {
		lines = append(lines, PropertyKeyStyle.Render(p.Name)+PropertyValueStyle.Render(p.Text()))
	}
	return strings.Join(lines, "\n")
}

// Section renders a titled block with an optional caption and footer.
func Section(title, caption, body, footer string) string {
	parts := []string{SectionTitleStyle.Render(title)}
	if caption != "" {
		parts = append(parts, CaptionStyle.Render(caption))
	}
	parts = append(parts, body)
	if footer != "" {
		parts = append(parts, CaptionStyle.Render(footer))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// MessageString renders the transient message in its context style.
func MessageString(s view.Snackbar) string {
	if s.Empty() {
		return ""
	}
	switch s.Context {
	case view.ContextDanger:
		return MessageDangerStyle.Render("✗ " + s.Message)
	case view.ContextText:
		return MessageTextStyle.Render("✓ " + s.Message)
	}
	return MessageStyle.Render(s.Message)
}
