package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"modelsnap/internal/domain"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width          int
	Height         int
	Model          string
	ModelLabel     string
	Pictures       []domain.Picture
	SelectedIndex  int
	Selected       map[string]bool
	Selecting      bool
	Loading        bool
	Importing      bool
	DecoratorOn    bool
	StatusMessage  string
	ViewportOffset int
	ViewportHeight int
	SearchQuery    string
	TextInput      string
	InputMode      string
	ConfirmText    string
	ShowInfo       bool
	InfoContent    string
}

// Renderer handles all view rendering
type Renderer struct {
	styles      *Styles
	picRender   *PictureRenderer
	popupRender *PopupRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:      styles,
		picRender:   NewPictureRenderer(styles),
		popupRender: NewPopupRenderer(styles),
	}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	// Title with the active model and loading indicators
	title := "modelsnap"
	if state.Model != "" {
		title += "  " + state.Model
	}
	logo := r.styles.Title.Render(title)
	if state.ModelLabel != "" && state.ModelLabel != state.Model {
		logo += r.styles.Label.Render(" (" + state.ModelLabel + ")")
	}

	// Build indicators for the right side of the title
	indicators := []string{}

	if state.Loading {
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frame := int(time.Now().UnixMilli()/80) % len(spinner)
		indicators = append(indicators, fmt.Sprintf("%s Loading", spinner[frame]))
	}
	if state.Importing {
		indicators = append(indicators, "⇣ camera")
	}
	if state.DecoratorOn {
		indicators = append(indicators, "◈ markers")
	}
	if state.Selecting {
		indicators = append(indicators, fmt.Sprintf("SELECT %d/%d", len(state.Selected), len(state.Pictures)))
	}

	// Build the title line with right-aligned indicators
	var titleLine string
	if len(indicators) > 0 {
		logoWidth := lipgloss.Width(logo)
		rightContent := r.styles.Dim.Render(strings.Join(indicators, " | "))
		rightWidth := lipgloss.Width(rightContent)

		termWidth := state.Width
		if termWidth <= 0 {
			termWidth = 80 // Default terminal width
		}
		availableWidth := termWidth - 4 // Account for main container padding
		paddingWidth := availableWidth - logoWidth - rightWidth

		if paddingWidth > 0 {
			padding := strings.Repeat(" ", paddingWidth)
			titleLine = fmt.Sprintf("%s%s%s", logo, padding, rightContent)
		} else {
			titleLine = fmt.Sprintf("%s  %s", logo, rightContent)
		}
	} else {
		titleLine = logo
	}

	content.WriteString(titleLine)
	content.WriteString("\n")

	// Text input line while a text mode is active
	if state.InputMode != "" && state.TextInput != "" {
		content.WriteString(state.TextInput)
		content.WriteString("\n")
		content.WriteString("\n")
	}

	// Main content
	mainContent := ""
	if state.Loading && len(state.Pictures) == 0 {
		mainContent = r.styles.Dim.Render("Loading pictures...")
	} else if len(state.Pictures) == 0 {
		mainContent = r.styles.Dim.Render("No pictures yet. Press p to pick one from the library.")
	} else {
		mainContent = r.renderPictureList(state)
	}
	content.WriteString(mainContent)

	// Status line
	if state.StatusMessage != "" {
		content.WriteString("\n")
		content.WriteString(r.styles.Status.Render(state.StatusMessage))
	}

	// Help hint pinned to the bottom when no popups are visible
	helpText := ""
	if !state.ShowInfo && state.ConfirmText == "" {
		helpText = r.styles.Help.Render("Press ? for help")
	}

	if helpText != "" {
		currentContent := content.String()
		currentLines := strings.Count(currentContent, "\n") + 1

		// Account for container padding (1 top, 1 bottom from Padding(1, 2))
		availableLines := state.Height - 2
		if availableLines <= 0 {
			availableLines = 22 // Default terminal height minus padding
		}

		paddingNeeded := availableLines - currentLines - 1
		if paddingNeeded > 0 {
			content.WriteString(strings.Repeat("\n", paddingNeeded))
		}

		content.WriteString("\n")
		content.WriteString(helpText)
	}

	// Apply main container style
	mainStyle := r.styles.Main.MaxHeight(state.Height)
	finalContent := mainStyle.Render(content.String())

	// Overlay popups on top of main content
	if state.ConfirmText != "" {
		confirmContent := r.styles.Confirm.Render(state.ConfirmText) + "\n\n" +
			r.styles.Dim.Render("y: yes    n: no")
		return r.popupRender.RenderPopupOverlay(finalContent, confirmContent, state.Height, state.Width, r.styles.ConfirmBox)
	}

	if state.ShowInfo && state.InfoContent != "" {
		return r.popupRender.RenderPopupOverlay(finalContent, state.InfoContent, state.Height, state.Width, r.styles.InfoBox)
	}

	return finalContent
}

// renderPictureList renders the visible window of the picture list
func (r *Renderer) renderPictureList(state ViewState) string {
	var lines []string

	total := len(state.Pictures)

	// Calculate effective height
	effectiveHeight := state.ViewportHeight
	needsTopIndicator := state.ViewportOffset > 0
	needsBottomIndicator := state.ViewportOffset+state.ViewportHeight < total

	if !needsBottomIndicator && needsTopIndicator {
		if total-state.ViewportOffset > state.ViewportHeight-1 {
			needsBottomIndicator = true
		}
	}

	if needsTopIndicator {
		effectiveHeight--
	}
	if needsBottomIndicator {
		effectiveHeight--
	}
	if effectiveHeight < 1 {
		effectiveHeight = 1
	}

	if needsTopIndicator {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↑ %d more above ↑", state.ViewportOffset)))
	}

	end := state.ViewportOffset + effectiveHeight
	if end > total {
		end = total
	}
	for i := state.ViewportOffset; i < end; i++ {
		pic := state.Pictures[i]
		line := r.picRender.RenderPicture(
			pic,
			i == state.SelectedIndex,
			state.Selecting,
			state.Selected[pic.URL],
			state.SearchQuery,
			state.DecoratorOn,
		)
		lines = append(lines, line)
	}

	if needsBottomIndicator {
		itemsBelow := total - end
		if itemsBelow < 0 {
			itemsBelow = 0
		}
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↓ %d more below ↓", itemsBelow)))
	}

	return strings.Join(lines, "\n")
}
