package types

// Navigation actions
type NavigateAction struct {
	Direction string // "up", "down", "pageup", "pagedown", "home", "end"
}

func (a NavigateAction) Type() string { return "navigate" }

// Selection actions
type ToggleSelectAction struct {
	Index int // -1 for current
}

func (a ToggleSelectAction) Type() string { return "toggle_select" }

type SelectAllAction struct{}

func (a SelectAllAction) Type() string { return "select_all" }

type ToggleSelectModeAction struct{}

func (a ToggleSelectModeAction) Type() string { return "toggle_select_mode" }

// ActivateAction fires on Enter: toggle in selection mode, open otherwise
type ActivateAction struct{}

func (a ActivateAction) Type() string { return "activate" }

// Mode transition actions
type ChangeModeAction struct {
	Mode Mode
	Data interface{} // Optional data for the mode
}

func (a ChangeModeAction) Type() string { return "change_mode" }

// Text input actions
type UpdateTextAction struct {
	Text string
}

func (a UpdateTextAction) Type() string { return "update_text" }

type SubmitTextAction struct {
	Text string
	Mode Mode // Which mode submitted the text
}

func (a SubmitTextAction) Type() string { return "submit_text" }

type CancelTextAction struct{}

func (a CancelTextAction) Type() string { return "cancel_text" }

// Gallery actions
type ReloadAction struct{}

func (a ReloadAction) Type() string { return "reload" }

type DeleteAction struct{}

func (a DeleteAction) Type() string { return "delete" }

type ShareAction struct{}

func (a ShareAction) Type() string { return "share" }

type PickAction struct {
	FromLibrary bool // true picks from the photo library, false from the camera inbox
}

func (a PickAction) Type() string { return "pick" }

type ToggleDecoratorAction struct{}

func (a ToggleDecoratorAction) Type() string { return "toggle_decorator" }

// Model switching
type CycleModelAction struct {
	Direction int // +1 next, -1 previous
}

func (a CycleModelAction) Type() string { return "cycle_model" }

type SwitchModelAction struct {
	Model string
}

func (a SwitchModelAction) Type() string { return "switch_model" }

type SetLabelAction struct {
	Label string
}

func (a SetLabelAction) Type() string { return "set_label" }

// Confirm dialog answer
type ConfirmResultAction struct {
	Accepted bool
}

func (a ConfirmResultAction) Type() string { return "confirm_result" }

// Search navigation
type SearchNavigateAction struct {
	Direction string // "next" or "prev"
}

func (a SearchNavigateAction) Type() string { return "search_navigate" }

// Pager and overlay actions
type ToggleInfoAction struct{}

func (a ToggleInfoAction) Type() string { return "toggle_info" }

type OpenLogAction struct{}

func (a OpenLogAction) Type() string { return "open_log" }

type ToggleHelpAction struct{}

func (a ToggleHelpAction) Type() string { return "toggle_help" }

// SaveConfigAction persists the current model and decorator flag
type SaveConfigAction struct{}

func (a SaveConfigAction) Type() string { return "save_config" }

type QuitAction struct {
	Force bool // true for Ctrl+C, false for 'q'
}

func (a QuitAction) Type() string { return "quit" }
