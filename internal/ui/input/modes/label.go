package modes

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"modelsnap/internal/ui/input/types"
)

type LabelMode struct {
	textInput *textinput.Model
	oldLabel  string
}

func NewLabelMode(ti *textinput.Model) *LabelMode {
	return &LabelMode{
		textInput: ti,
	}
}

func (m *LabelMode) Name() string {
	return "label"
}

func (m *LabelMode) Prompt() string {
	return "Label: "
}

func (m *LabelMode) Enter(ctx types.Context) []types.Action {
	if m.textInput != nil {
		m.textInput.Reset()
		m.textInput.Focus()
		m.textInput.Prompt = "" // Prompt is handled in the UI layer
		// Pre-fill with the current label so edits start from it
		if label := ctx.ModelLabel(); label != "" {
			m.oldLabel = label
			m.textInput.SetValue(label)
			m.textInput.CursorEnd()
		}
	}
	return nil
}

func (m *LabelMode) Exit(ctx types.Context) []types.Action {
	if m.textInput != nil {
		m.textInput.Blur()
		m.textInput.Reset()
	}
	m.oldLabel = ""
	return nil
}

func (m *LabelMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true

	case "esc":
		return []types.Action{
			types.CancelTextAction{},
			types.ChangeModeAction{Mode: types.ModeNormal},
		}, true

	case "enter":
		newLabel := ""
		if m.textInput != nil {
			newLabel = m.textInput.Value()
		}

		// Only apply if the label actually changed
		if newLabel != m.oldLabel {
			return []types.Action{
				types.SetLabelAction{Label: newLabel},
				types.ChangeModeAction{Mode: types.ModeNormal},
			}, true
		}

		return []types.Action{
			types.CancelTextAction{},
			types.ChangeModeAction{Mode: types.ModeNormal},
		}, true

	default:
		// Let the main handler update the text input
		return nil, false
	}
}
