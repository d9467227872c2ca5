package modes

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"modelsnap/internal/ui/input/types"
)

type NormalMode struct {
	lastKeyWasG bool
	lastGTime   time.Time
}

func NewNormalMode() *NormalMode {
	return &NormalMode{}
}

func (m *NormalMode) Name() string {
	return "normal"
}

func (m *NormalMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return []types.Action{types.QuitAction{Force: true}}, true

	case tea.KeyUp:
		return []types.Action{types.NavigateAction{Direction: "up"}}, true

	case tea.KeyDown:
		return []types.Action{types.NavigateAction{Direction: "down"}}, true

	case tea.KeyPgUp:
		return []types.Action{types.NavigateAction{Direction: "pageup"}}, true

	case tea.KeyPgDown:
		return []types.Action{types.NavigateAction{Direction: "pagedown"}}, true

	case tea.KeyHome:
		return []types.Action{types.NavigateAction{Direction: "home"}}, true

	case tea.KeyEnd:
		return []types.Action{types.NavigateAction{Direction: "end"}}, true

	case tea.KeyEnter:
		// Enter activates the picture under the cursor: toggle while
		// selecting, open while browsing
		if ctx.CurrentURL() != "" {
			return []types.Action{types.ActivateAction{}}, true
		}
		return nil, false
	}

	// Handle string keys
	switch msg.String() {
	case " ":
		if ctx.CurrentURL() != "" {
			return []types.Action{types.ToggleSelectAction{Index: -1}}, true
		}
		return nil, false

	case "j":
		return []types.Action{types.NavigateAction{Direction: "down"}}, true

	case "k":
		return []types.Action{types.NavigateAction{Direction: "up"}}, true

	case "v", "V":
		return []types.Action{types.ToggleSelectModeAction{}}, true

	case "a", "A":
		if ctx.TotalItems() > 0 {
			return []types.Action{types.SelectAllAction{}}, true
		}
		return nil, false

	case "d", "x":
		// Delete the selection, or the current picture when browsing
		if ctx.SelectedCount() > 0 || ctx.CurrentURL() != "" {
			return []types.Action{types.DeleteAction{}}, true
		}
		return nil, false

	case "s":
		if ctx.TotalItems() > 0 {
			return []types.Action{types.ShareAction{}}, true
		}
		return nil, false

	case "p":
		return []types.Action{types.PickAction{FromLibrary: true}}, true

	case "P":
		return []types.Action{types.PickAction{FromLibrary: false}}, true

	case "r":
		return []types.Action{types.ReloadAction{}}, true

	case "t":
		return []types.Action{types.ToggleDecoratorAction{}}, true

	case "[":
		return []types.Action{types.CycleModelAction{Direction: -1}}, true

	case "]":
		return []types.Action{types.CycleModelAction{Direction: 1}}, true

	case "m":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeModel}}, true

	case "e":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeLabel}}, true

	case "/":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeSearch}}, true

	case "n":
		if ctx.SearchQuery() != "" {
			return []types.Action{types.SearchNavigateAction{Direction: "next"}}, true
		}
		return nil, true // Consume the key even if no action

	case "N":
		if ctx.SearchQuery() != "" {
			return []types.Action{types.SearchNavigateAction{Direction: "prev"}}, true
		}
		return nil, true

	case "i", "I":
		if ctx.CurrentURL() != "" {
			return []types.Action{types.ToggleInfoAction{}}, true
		}
		return nil, false

	case "L":
		return []types.Action{types.OpenLogAction{}}, true

	case "?":
		return []types.Action{types.ToggleHelpAction{}}, true

	case "S":
		return []types.Action{types.SaveConfigAction{}}, true

	case "esc":
		// Leave selection mode if active, otherwise nothing
		if ctx.Selecting() {
			return []types.Action{types.ToggleSelectModeAction{}}, true
		}
		return nil, true

	case "q":
		return []types.Action{types.QuitAction{Force: false}}, true

	case "g":
		if m.lastKeyWasG && time.Since(m.lastGTime) < 500*time.Millisecond {
			// gg - go to top (within timeout)
			m.lastKeyWasG = false
			return []types.Action{types.NavigateAction{Direction: "home"}}, true
		}
		// First g, wait for next key
		m.lastKeyWasG = true
		m.lastGTime = time.Now()
		return nil, true

	case "G":
		m.lastKeyWasG = false
		return []types.Action{types.NavigateAction{Direction: "end"}}, true

	default:
		// Any other key cancels the 'g' prefix
		if m.lastKeyWasG {
			m.lastKeyWasG = false
		}
	}

	return nil, false
}
