package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"modelsnap/internal/domain"
)

// PictureRenderer handles rendering of picture list items
type PictureRenderer struct {
	styles *Styles
}

// NewPictureRenderer creates a new picture renderer
func NewPictureRenderer(styles *Styles) *PictureRenderer {
	return &PictureRenderer{styles: styles}
}

// RenderPicture renders one line of the picture list
func (r *PictureRenderer) RenderPicture(pic domain.Picture, isCursor bool,
	selecting bool, isSelected bool, searchQuery string, decoratorOn bool) string {
	// Background color for the cursor line
	bgColor := ""
	if isCursor {
		bgColor = "238"
	}

	var parts []string

	// Selection checkbox
	if selecting {
		indicator := "[ ]"
		if isSelected {
			indicator = "[x]"
		}
		selectionStyle := lipgloss.NewStyle().Background(lipgloss.Color(bgColor))
		parts = append(parts, selectionStyle.Render(indicator))
		parts = append(parts, " ")
	}

	// Origin dot
	originStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(GetOriginColor(pic.Origin))).
		Background(lipgloss.Color(bgColor))
	parts = append(parts, originStyle.Render("●"))
	parts = append(parts, " ")

	// Picture name (with search highlighting if applicable)
	name := pic.Name
	nameStyle := lipgloss.NewStyle().Background(lipgloss.Color(bgColor))
	if searchQuery != "" && strings.Contains(strings.ToLower(name), strings.ToLower(searchQuery)) {
		name = r.highlightMatch(name, searchQuery,
			nameStyle.Foreground(lipgloss.Color("226")), nameStyle)
	} else {
		name = nameStyle.Render(name)
	}
	parts = append(parts, name)

	// Dimensions and size
	meta := ""
	if pic.Width > 0 && pic.Height > 0 {
		meta = fmt.Sprintf(" %dx%d", pic.Width, pic.Height)
	}
	if pic.Size > 0 {
		meta += " " + formatSize(pic.Size)
	}
	if meta != "" {
		metaStyle := r.styles.Dim.Background(lipgloss.Color(bgColor))
		parts = append(parts, metaStyle.Render(meta))
	}

	// Marker pin when decoration is visible
	if decoratorOn && pic.Origin == domain.OriginMarker {
		pinStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(GetOriginColor(domain.OriginMarker))).
			Background(lipgloss.Color(bgColor))
		parts = append(parts, pinStyle.Render(" ◈"))
	}

	return strings.Join(parts, "")
}

// formatSize renders a byte count in a compact human form
func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%dB", size)
	}
}

// highlightMatch highlights matching text within a string
func (r *PictureRenderer) highlightMatch(text, query string, highlightStyle, normalStyle lipgloss.Style) string {
	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	index := strings.Index(lowerText, lowerQuery)
	if index == -1 {
		return normalStyle.Render(text)
	}

	before := text[:index]
	match := text[index : index+len(query)]
	after := text[index+len(query):]

	var result []string
	if before != "" {
		result = append(result, normalStyle.Render(before))
	}
	result = append(result, highlightStyle.Render(match))
	if after != "" {
		result = append(result, normalStyle.Render(after))
	}

	return strings.Join(result, "")
}
