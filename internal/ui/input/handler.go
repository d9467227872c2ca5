package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"modelsnap/internal/ui/input/modes"
	"modelsnap/internal/ui/input/types"
)

type Handler struct {
	currentMode types.Mode
	modes       map[types.Mode]types.ModeHandler
	textInput   *textinput.Model // Shared text input for text modes
}

func New() *Handler {
	ti := textinput.New()

	h := &Handler{
		currentMode: types.ModeNormal,
		textInput:   &ti,
		modes:       make(map[types.Mode]types.ModeHandler),
	}

	// Register all mode handlers
	h.modes[types.ModeNormal] = modes.NewNormalMode()
	h.modes[types.ModeSearch] = modes.NewSearchMode(h.textInput)
	h.modes[types.ModeModel] = modes.NewModelMode(h.textInput)
	h.modes[types.ModeLabel] = modes.NewLabelMode(h.textInput)
	h.modes[types.ModeConfirm] = modes.NewConfirmMode()

	return h
}

func (h *Handler) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, tea.Cmd) {
	handler := h.modes[h.currentMode]
	if handler == nil {
		return nil, nil
	}

	actions, consumed := handler.HandleKey(msg, ctx)

	var cmd tea.Cmd
	var allActions []types.Action

	// If not consumed and we're in text mode, we'll handle it below
	if !consumed && !h.isTextMode(h.currentMode) {
		return nil, nil
	}

	// Handle mode changes
	for _, action := range actions {
		if changeMode, ok := action.(types.ChangeModeAction); ok {
			// Exit current mode
			if h.modes[h.currentMode] != nil {
				exitActions := h.modes[h.currentMode].Exit(ctx)
				allActions = append(allActions, exitActions...)
			}

			// Change mode
			oldMode := h.currentMode
			h.currentMode = changeMode.Mode

			// Enter new mode (text modes reset and focus the input themselves)
			if h.modes[h.currentMode] != nil {
				enterActions := h.modes[h.currentMode].Enter(ctx)
				allActions = append(allActions, enterActions...)
			}

			// Handle text input focus
			if h.isTextMode(h.currentMode) {
				cmd = textinput.Blink
			} else if h.isTextMode(oldMode) {
				h.textInput.Blur()
			}
		} else {
			allActions = append(allActions, action)
		}
	}

	// If we're in a text mode and didn't handle the key, pass it to text input
	if h.isTextMode(h.currentMode) && (!consumed || len(actions) == 0) {
		var textCmd tea.Cmd
		*h.textInput, textCmd = h.textInput.Update(msg)
		cmd = textCmd
		// Always append an update action when in text mode to keep view in sync
		allActions = append(allActions, types.UpdateTextAction{Text: h.textInput.Value()})
	}

	return allActions, cmd
}

// ChangeMode switches modes without a triggering key, e.g. when a confirm
// request arrives over the event bus
func (h *Handler) ChangeMode(mode types.Mode, ctx types.Context) {
	if h.modes[h.currentMode] != nil {
		h.modes[h.currentMode].Exit(ctx)
	}
	oldMode := h.currentMode
	h.currentMode = mode
	if h.modes[h.currentMode] != nil {
		h.modes[h.currentMode].Enter(ctx)
	}
	if !h.isTextMode(mode) && h.isTextMode(oldMode) {
		h.textInput.Blur()
	}
}

func (h *Handler) GetMode() types.Mode {
	if h == nil {
		return types.ModeNormal
	}
	return h.currentMode
}

// ModeName returns the current mode name for the status line
func (h *Handler) ModeName() string {
	if m := h.modes[h.currentMode]; m != nil {
		return m.Name()
	}
	return ""
}

// Prompt returns the prompt of the current text mode, or ""
func (h *Handler) Prompt() string {
	if p, ok := h.modes[h.currentMode].(interface{ Prompt() string }); ok {
		return p.Prompt()
	}
	return ""
}

// GetTextInput returns the shared text input model
func (h *Handler) GetTextInput() *textinput.Model {
	if h == nil {
		return nil
	}
	return h.textInput
}

// InTextMode reports whether the current mode reads typed text
func (h *Handler) InTextMode() bool {
	return h.isTextMode(h.currentMode)
}

func (h *Handler) isTextMode(mode types.Mode) bool {
	switch mode {
	case types.ModeSearch, types.ModeModel, types.ModeLabel:
		return true
	default:
		return false
	}
}

// Update handles non-keyboard messages for text input
func (h *Handler) Update(msg tea.Msg) tea.Cmd {
	if h.isTextMode(h.currentMode) {
		var cmd tea.Cmd
		*h.textInput, cmd = h.textInput.Update(msg)
		return cmd
	}
	return nil
}
