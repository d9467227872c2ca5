package views

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PopupRenderer handles popup/modal rendering
type PopupRenderer struct {
	styles *Styles
}

// NewPopupRenderer creates a new popup renderer
func NewPopupRenderer(styles *Styles) *PopupRenderer {
	return &PopupRenderer{
		styles: styles,
	}
}

// RenderPopupOverlay renders a popup centered over the main content. The
// base content is desaturated and the popup lines are spliced over it
func (pr *PopupRenderer) RenderPopupOverlay(mainContent, popupContent string, height, width int, popupStyle lipgloss.Style) string {
	styledPopup := popupStyle.Render(popupContent)

	baseLines := strings.Split(desaturateANSI(mainContent), "\n")
	for len(baseLines) < height {
		baseLines = append(baseLines, "")
	}

	popupLines := strings.Split(styledPopup, "\n")

	y := (height - len(popupLines)) / 2
	if y < 0 {
		y = 0
	}
	x := (width - lipgloss.Width(styledPopup)) / 2
	if x < 0 {
		x = 0
	}
	pad := strings.Repeat(" ", x)

	for i, line := range popupLines {
		if y+i < len(baseLines) {
			baseLines[y+i] = pad + line
		}
	}

	return strings.Join(baseLines, "\n")
}

// ANSI escape sequence regex to strip styles/colors
var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// desaturateANSI strips ANSI color/style codes and recolors text dim gray
func desaturateANSI(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, len(lines))
	gray := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	for i, line := range lines {
		out[i] = gray.Render(ansiRE.ReplaceAllString(line, ""))
	}
	return strings.Join(out, "\n")
}
