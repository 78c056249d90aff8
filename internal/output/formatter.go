package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	delStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hunkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// PaletteColor returns text styled with the palette color for the given index
func PaletteColor(text string, index int) string {
	if len(palette) == 0 {
		return text
	}
	color := palette[index%len(palette)]
	hexColor := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", color[0], color[1], color[2]))
	return lipgloss.NewStyle().Foreground(hexColor).Render(text)
}

// FormatStatus renders the one-line outcome of an operation
func FormatStatus(ok bool, message, errorKind string) string {
	if ok {
		return okStyle.Render("✓") + " " + message
	}
	line := errStyle.Render("✗") + " " + message
	if errorKind != "" {
		line += " " + kindStyle.Render("("+errorKind+")")
	}
	return line
}

// FormatHeader renders a section header such as a file path in a diff
func FormatHeader(text string) string {
	return headerStyle.Render(text)
}

// FormatDiffLine colors a unified diff line by its prefix
func FormatDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "@@"):
		return hunkStyle.Render(line)
	case strings.HasPrefix(line, "+"):
		return addStyle.Render(line)
	case strings.HasPrefix(line, "-"):
		return delStyle.Render(line)
	default:
		return line
	}
}

// FormatList renders names one per line, cycling through the palette.
// The entry equal to current is marked.
func FormatList(names []string, current string) string {
	var b strings.Builder
	for i, name := range names {
		marker := "  "
		if name == current {
			marker = "* "
		}
		b.WriteString(marker)
		b.WriteString(PaletteColor(name, i))
		b.WriteString("\n")
	}
	return b.String()
}
