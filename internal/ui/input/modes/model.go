package modes

import (
	"github.com/charmbracelet/bubbles/textinput"

	"modelsnap/internal/ui/input/types"
)

type ModelMode struct {
	TextInputMode
}

func NewModelMode(ti *textinput.Model) *ModelMode {
	return &ModelMode{
		TextInputMode: NewTextInputMode(types.ModeModel, "model", "Model: ", ti),
	}
}
