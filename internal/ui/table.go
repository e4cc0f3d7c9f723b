package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Table renders rows under headers. With colors disabled it uses a plain
// ASCII border so the output can be piped or diffed.
func Table(headers []string, rows [][]string) string {
	t := table.New().Headers(headers...).Rows(rows...)
	if !IsColorEnabled() {
		return t.Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(int, int) lipgloss.Style { return cellStyle }).
			String()
	}
	return t.Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
