package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpRenderer handles help content rendering
type HelpRenderer struct{}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer() *HelpRenderer {
	return &HelpRenderer{}
}

// RenderHelpContent renders the full key reference for the pager
func (r *HelpRenderer) RenderHelpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220"))

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	var help strings.Builder

	// Title
	help.WriteString(titleStyle.Render("ModelSnap Help"))
	help.WriteString("\n")

	// Navigation section
	help.WriteString(sectionStyle.Render("Navigation"))
	help.WriteString("\n")
	help.WriteString(fmt.Sprintf("  %s  %s\n", keyStyle.Render("↑/↓, j/k"), descStyle.Render("Move up/down")))
	help.WriteString(fmt.Sprintf("  %s    %s\n", keyStyle.Render("PgUp/PgDn"), descStyle.Render("Page up/down")))
	help.WriteString(fmt.Sprintf("  %s       %s\n", keyStyle.Render("gg/G"), descStyle.Render("Go to top/bottom")))
	help.WriteString("\n")

	// Selection section
	help.WriteString(sectionStyle.Render("Selection"))
	help.WriteString("\n")
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("v"), descStyle.Render("Toggle selection mode")))
	help.WriteString(fmt.Sprintf("  %s      %s\n", keyStyle.Render("Space"), descStyle.Render("Toggle selection")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("a"), descStyle.Render("Select all / none")))
	help.WriteString(fmt.Sprintf("  %s        %s\n", keyStyle.Render("Esc"), descStyle.Render("Leave selection mode")))
	help.WriteString("\n")

	// Picture actions section
	help.WriteString(sectionStyle.Render("Pictures"))
	help.WriteString("\n")
	help.WriteString(fmt.Sprintf("  %s      %s\n", keyStyle.Render("Enter"), descStyle.Render("Open picture (toggle while selecting)")))
	help.WriteString(fmt.Sprintf("  %s        %s\n", keyStyle.Render("d/x"), descStyle.Render("Delete selection or current picture")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("s"), descStyle.Render("Share selection (or whole gallery)")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("p"), descStyle.Render("Pick newest from photo library")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("P"), descStyle.Render("Pick newest from camera inbox")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("r"), descStyle.Render("Reload gallery")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("i"), descStyle.Render("Show picture details")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("t"), descStyle.Render("Toggle marker decoration")))
	help.WriteString("\n")

	// Model section
	help.WriteString(sectionStyle.Render("Models"))
	help.WriteString("\n")
	help.WriteString(fmt.Sprintf("  %s        %s\n", keyStyle.Render("[/]"), descStyle.Render("Previous/next model")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("m"), descStyle.Render("Switch model by name")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("e"), descStyle.Render("Edit model label")))
	help.WriteString("\n")

	// Search section
	help.WriteString(sectionStyle.Render("Search"))
	help.WriteString("\n")
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("/"), descStyle.Render("Search pictures")))
	help.WriteString(fmt.Sprintf("  %s        %s\n", keyStyle.Render("n/N"), descStyle.Render("Next/previous match")))
	help.WriteString(lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")).Render("  Search examples: floor, origin:camera, origin:upload"))
	help.WriteString("\n")

	// Other section
	help.WriteString(sectionStyle.Render("Other"))
	help.WriteString("\n")
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("L"), descStyle.Render("View application log")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("S"), descStyle.Render("Save model and settings to config")))
	help.WriteString(fmt.Sprintf("  %s          %s\n", keyStyle.Render("?"), descStyle.Render("Show this help")))
	help.WriteString(fmt.Sprintf("  %s          %s", keyStyle.Render("q"), descStyle.Render("Quit")))

	return help.String()
}
