package views

import (
	"github.com/charmbracelet/lipgloss"

	"modelsnap/internal/domain"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Label         lipgloss.Style
	Confirm       lipgloss.Style
	Dim           lipgloss.Style
	Status        lipgloss.Style
	InfoBox       lipgloss.Style
	ConfirmBox    lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	Scroll        lipgloss.Style
	Highlight     lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
	SelectionBg   lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Confirm: lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		InfoBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(1).
			BorderForeground(lipgloss.Color("241")),
		ConfirmBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			BorderForeground(lipgloss.Color("203")),
		Help: lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(1, 2).
			MaxHeight(100), // Will be dynamically adjusted
		Scroll:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		SelectionBg:   lipgloss.NewStyle().Background(lipgloss.Color("238")),
	}
}

// GetOriginColor returns the appropriate color for a picture origin
func GetOriginColor(origin domain.PictureOrigin) string {
	switch origin {
	case domain.OriginCamera:
		return "33" // blue
	case domain.OriginLibrary:
		return "78" // green
	case domain.OriginUpload:
		return "214" // yellow
	case domain.OriginMarker:
		return "99" // purple
	default:
		return "241" // gray
	}
}
