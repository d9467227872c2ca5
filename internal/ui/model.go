package ui

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modelsnap/internal/config"
	"modelsnap/internal/domain"
	"modelsnap/internal/eventbus"
	"modelsnap/internal/gallery"
	"modelsnap/internal/imagestore"
	"modelsnap/internal/ui/input"
	inputtypes "modelsnap/internal/ui/input/types"
	"modelsnap/internal/ui/logic"
	"modelsnap/internal/ui/state"
	"modelsnap/internal/ui/views"
)

// LogFileName is where the application log goes. The log pager reads it back.
const LogFileName = "modelsnap.log"

// Model represents the UI state
type Model struct {
	bus        eventbus.EventBus
	config     *config.Config
	controller *gallery.Controller
	store      imagestore.Store
	state      *state.AppState // centralized state

	// UI-specific state not in AppState
	width       int
	height      int
	inPagerMode bool // tracks if we're currently in pager mode

	// Pending confirm dialog; nil when none is open
	confirmReply chan<- bool
	confirmText  string

	// Handlers
	navigator    *logic.Navigator // navigation and viewport handler
	renderer     *views.Renderer  // view renderer
	helpRender   *HelpRenderer    // help content
	pager        *Pager           // external pager for long content
	inputHandler *input.Handler   // input handling

	// Program reference for terminal management
	program *tea.Program

	// Context bounding controller and store calls made from commands
	runCtx context.Context
}

// NewModel creates a new UI model
func NewModel(ctx context.Context, bus eventbus.EventBus, cfg *config.Config, ctrl *gallery.Controller, store imagestore.Store) *Model {
	appState := state.NewAppState()
	appState.Model = ctrl.Model()
	appState.DecoratorOn = ctrl.DecoratorEnabled()

	return &Model{
		bus:          bus,
		config:       cfg,
		controller:   ctrl,
		store:        store,
		state:        appState,
		navigator:    logic.NewNavigator(),
		renderer:     views.NewRenderer(),
		helpRender:   NewHelpRenderer(),
		pager:        NewPager(),
		inputHandler: input.New(),
		runCtx:       ctx,
	}
}

// SetProgram sets the tea.Program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager.SetProgram(p)
}

// syncNavigatorState updates the navigator with current model state
func (m *Model) syncNavigatorState() {
	m.navigator.UpdateState(
		m.state.SelectedIndex,
		m.state.ViewportOffset,
		m.state.ViewportHeight,
		len(m.state.Pictures),
	)
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	m.state.ViewportHeight = 20 // Will be updated on first WindowSizeMsg
	return tea.Batch(
		m.refreshGallery(),
		m.fetchModels(),
		tick(),
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportHeight()

	case tea.KeyMsg:
		// Handle the info popup first
		if m.state.ShowInfo {
			switch msg.String() {
			case "esc", "i", "q":
				m.state.ShowInfo = false
				m.state.InfoContent = ""
				return m, nil
			}
		}

		// Create context for input handler
		ctx := &input.ModelContext{State: m.state}

		actions, cmd := m.inputHandler.HandleKey(msg, ctx)

		cmds := []tea.Cmd{}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		for _, action := range actions {
			if actionCmd := m.processAction(action); actionCmd != nil {
				cmds = append(cmds, actionCmd)
			}
		}
		return m, tea.Batch(cmds...)

	default:
		// Handle non-keyboard messages
		if cmd := m.inputHandler.Update(msg); cmd != nil {
			return m, cmd
		}
		return m.handleNonKeyboardMsg(msg)
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	vs := views.ViewState{
		Width:          m.width,
		Height:         m.height,
		Model:          m.state.Model,
		ModelLabel:     m.state.ModelLabel,
		Pictures:       m.state.Pictures,
		SelectedIndex:  m.state.SelectedIndex,
		Selected:       m.state.Selected,
		Selecting:      m.state.Selecting,
		Loading:        m.state.Loading,
		Importing:      m.state.Importing,
		DecoratorOn:    m.state.DecoratorOn,
		StatusMessage:  m.state.StatusMessage,
		ViewportOffset: m.state.ViewportOffset,
		ViewportHeight: m.state.ViewportHeight,
		SearchQuery:    m.state.SearchQuery,
		ConfirmText:    m.confirmText,
		ShowInfo:       m.state.ShowInfo,
		InfoContent:    m.state.InfoContent,
	}

	if m.inputHandler.InTextMode() {
		vs.InputMode = m.inputHandler.ModeName()
		if ti := m.inputHandler.GetTextInput(); ti != nil {
			vs.TextInput = m.inputHandler.Prompt() + ti.View()
		}
	}

	return m.renderer.Render(vs)
}

// updateViewportHeight calculates the available height for the picture list
func (m *Model) updateViewportHeight() {
	// Account for title (2 lines), status (2 lines), help (1 line), and padding
	reservedLines := 7

	m.state.ViewportHeight = m.height - reservedLines
	if m.state.ViewportHeight < 1 {
		m.state.ViewportHeight = 1
	}

	// Ensure viewport offset is still valid
	m.ensureSelectedVisible()
}

// ensureSelectedVisible ensures the selected item is visible in the viewport
func (m *Model) ensureSelectedVisible() {
	m.syncNavigatorState()
	m.state.SelectedIndex, m.state.ViewportOffset = m.navigator.SetSelectedIndex(m.state.SelectedIndex)
}

// buildPictureInfo generates the content for the picture info popup
func (m *Model) buildPictureInfo(pic domain.Picture) string {
	var info strings.Builder

	info.WriteString(lipgloss.NewStyle().Bold(true).Render(pic.Name))
	info.WriteString("\n\n")

	info.WriteString(fmt.Sprintf("URL: %s\n", pic.URL))
	info.WriteString(fmt.Sprintf("Model: %s\n", pic.Model))

	originStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(views.GetOriginColor(pic.Origin)))
	info.WriteString("Origin: ")
	info.WriteString(originStyle.Render(string(pic.Origin)))
	info.WriteString("\n\n")

	if pic.Width > 0 && pic.Height > 0 {
		info.WriteString(fmt.Sprintf("Dimensions: %dx%d\n", pic.Width, pic.Height))
	}
	if pic.Size > 0 {
		info.WriteString(fmt.Sprintf("Size: %d bytes\n", pic.Size))
	}
	if pic.Hash != "" {
		hash := pic.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		info.WriteString(fmt.Sprintf("Hash: %s\n", hash))
	}
	if !pic.Added.IsZero() {
		info.WriteString(fmt.Sprintf("Added: %s\n", pic.Added.Format("2006-01-02 15:04")))
	}

	if m.state.Selected[pic.URL] {
		info.WriteString("\n")
		info.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Render("Selected"))
		info.WriteString("\n")
	}

	info.WriteString("\n")
	info.WriteString("Press ESC or 'i' to close")

	return info.String()
}

// refreshGallery returns a command that snapshots the controller and resolves
// its URLs to picture records for display
func (m *Model) refreshGallery() tea.Cmd {
	return func() tea.Msg {
		snap := m.controller.Snapshot()

		pics := make([]domain.Picture, 0, len(snap.Pictures))
		for _, url := range snap.Pictures {
			p, err := m.store.GetImage(m.runCtx, url)
			if err != nil {
				// Keep a stub so indices stay aligned with the gallery
				mdl, name, _ := domain.ParseURL(url)
				p = domain.Picture{URL: url, Model: mdl, Name: name}
			}
			pics = append(pics, p)
		}

		label := ""
		if mf, err := imagestore.LoadManifest(m.config.Library.Path); err == nil {
			label = mf.Models[snap.Model].Label
		}

		return galleryDataMsg{snap: snap, pictures: pics, label: label}
	}
}

// fetchModels returns a command that lists the model ids known to the store
func (m *Model) fetchModels() tea.Cmd {
	return func() tea.Msg {
		models, err := m.store.Models(m.runCtx)
		return modelsMsg{models: models, err: err}
	}
}

// reloadCmd returns a command that reloads the gallery from the store
func (m *Model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		return reloadDoneMsg{err: m.controller.Reload(m.runCtx)}
	}
}

// deleteCmd returns a command that deletes the selection, or the picture
// under the cursor when nothing is selected. Blocks on the confirm dialog,
// so it must never run on the update loop.
func (m *Model) deleteCmd(url string, selection bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if selection {
			err = m.controller.DeleteSelected(m.runCtx)
		} else {
			err = m.controller.DeleteOne(m.runCtx, url)
		}
		return deleteDoneMsg{err: err}
	}
}

// shareCmd returns a command that mints a share link for the selection, or
// the whole gallery when nothing is selected
func (m *Model) shareCmd() tea.Cmd {
	return func() tea.Msg {
		link, err := m.controller.ShareSelection(m.runCtx, nil)
		return shareDoneMsg{link: link, err: err}
	}
}

// pickCmd returns a command that imports the newest image from the photo
// library or the camera directory
func (m *Model) pickCmd(fromLibrary bool) tea.Cmd {
	return func() tea.Msg {
		added, err := m.controller.PickImage(m.runCtx, fromLibrary)
		return pickDoneMsg{fromLibrary: fromLibrary, added: added, err: err}
	}
}

// switchModelCmd returns a command that points the gallery at another model
func (m *Model) switchModelCmd(model string) tea.Cmd {
	return func() tea.Msg {
		return switchDoneMsg{model: model, err: m.controller.SwitchModel(m.runCtx, model)}
	}
}

// setLabelCmd returns a command that persists a display label for the active
// model
func (m *Model) setLabelCmd(label string) tea.Cmd {
	model := m.state.Model
	dir := m.config.Library.Path
	return func() tea.Msg {
		return labelDoneMsg{label: label, err: imagestore.SetModelLabel(dir, model, label)}
	}
}

// saveConfigCmd returns a command that persists the current preferences
func (m *Model) saveConfigCmd() tea.Cmd {
	cfg := *m.config
	cfg.Gallery.Model = m.state.Model
	cfg.Gallery.Decorator = m.state.DecoratorOn
	return func() tea.Msg {
		return saveConfigDoneMsg{err: config.Save(cfg)}
	}
}

// pagerCmd returns a command that shows content in the external pager,
// pausing rendering while it is active
func (m *Model) pagerCmd(content string) tea.Cmd {
	return func() tea.Msg {
		// Send pause message to stop rendering
		m.program.Send(pauseRenderingMsg{})

		err := m.pager.Show(content)

		// Send resume message to restart rendering
		m.program.Send(resumeRenderingMsg{})

		return pagerDoneMsg{err: err}
	}
}

// processAction processes an action from the input handler
func (m *Model) processAction(action inputtypes.Action) tea.Cmd {
	log.Printf("processAction: %T", action)
	switch a := action.(type) {
	case inputtypes.NavigateAction:
		m.syncNavigatorState()
		m.state.SelectedIndex, m.state.ViewportOffset = m.navigator.Move(a.Direction)

	case inputtypes.ToggleSelectAction:
		idx := a.Index
		if idx < 0 {
			idx = m.state.SelectedIndex
		}
		if idx >= 0 && idx < len(m.state.Pictures) {
			m.controller.ToggleSelected(m.state.Pictures[idx].URL)
		}

	case inputtypes.SelectAllAction:
		m.controller.ToggleSelectAll()

	case inputtypes.ToggleSelectModeAction:
		m.controller.ToggleSelectMode()

	case inputtypes.ActivateAction:
		if url := m.state.CursorURL(); url != "" {
			m.controller.HandleClick(url)
		}

	case inputtypes.ReloadAction:
		m.state.Loading = true
		return m.reloadCmd()

	case inputtypes.DeleteAction:
		url := m.state.CursorURL()
		selection := m.state.SelectedCount() > 0
		if url == "" && !selection {
			return nil
		}
		return m.deleteCmd(url, selection)

	case inputtypes.ShareAction:
		return m.shareCmd()

	case inputtypes.PickAction:
		return m.pickCmd(a.FromLibrary)

	case inputtypes.ToggleDecoratorAction:
		m.state.DecoratorOn = m.controller.ToggleDecorator()

	case inputtypes.CycleModelAction:
		if len(m.state.Models) == 0 {
			return nil
		}
		next := m.state.ModelIndex() + a.Direction
		if next < 0 {
			next = len(m.state.Models) - 1
		}
		if next >= len(m.state.Models) {
			next = 0
		}
		if m.state.Models[next] == m.state.Model {
			return nil
		}
		m.state.Loading = true
		return m.switchModelCmd(m.state.Models[next])

	case inputtypes.SwitchModelAction:
		model := strings.TrimSpace(a.Model)
		if model == "" || model == m.state.Model {
			return nil
		}
		if !domain.ValidModelID(model) {
			m.state.StatusMessage = fmt.Sprintf("Invalid model id: %s", model)
			return clearStatusSoon()
		}
		m.state.Loading = true
		return m.switchModelCmd(model)

	case inputtypes.SetLabelAction:
		if m.config.Library.Path == ":memory:" {
			m.state.StatusMessage = "Labels need an on-disk library"
			return clearStatusSoon()
		}
		return m.setLabelCmd(strings.TrimSpace(a.Label))

	case inputtypes.SubmitTextAction:
		switch a.Mode {
		case inputtypes.ModeSearch:
			query := strings.TrimSpace(a.Text)
			if query == "" {
				m.state.ClearSearch()
				return nil
			}
			m.state.SetSearch(query, logic.PerformSearch(m.state.Pictures, query))
			if len(m.state.SearchMatches) > 0 {
				m.state.SelectedIndex = m.state.SearchMatches[0]
				m.ensureSelectedVisible()
			} else {
				m.state.StatusMessage = fmt.Sprintf("No matches for '%s'", query)
				return clearStatusSoon()
			}

		case inputtypes.ModeModel:
			return m.processAction(inputtypes.SwitchModelAction{Model: a.Text})

		case inputtypes.ModeLabel:
			// Label submits arrive as SetLabelAction
		}

	case inputtypes.CancelTextAction:
		// Clear any partial input
		m.state.ClearSearch()

	case inputtypes.UpdateTextAction:
		// The view reads the text input straight from the handler

	case inputtypes.SearchNavigateAction:
		if m.state.SearchQuery == "" || len(m.state.SearchMatches) == 0 {
			return nil
		}
		if idx := logic.NextMatch(m.state.SearchMatches, m.state.SelectedIndex, a.Direction); idx >= 0 {
			m.state.SelectedIndex = idx
			m.ensureSelectedVisible()
		}

	case inputtypes.ConfirmResultAction:
		if m.confirmReply != nil {
			m.confirmReply <- a.Accepted
			m.confirmReply = nil
			m.confirmText = ""
		}

	case inputtypes.ToggleInfoAction:
		if m.state.ShowInfo {
			m.state.ShowInfo = false
			m.state.InfoContent = ""
			return nil
		}
		if pic, ok := m.state.CursorPicture(); ok {
			m.state.InfoContent = m.buildPictureInfo(pic)
			m.state.ShowInfo = true
		}

	case inputtypes.OpenLogAction:
		data, err := os.ReadFile(LogFileName)
		if err != nil {
			m.state.StatusMessage = fmt.Sprintf("No log to show: %v", err)
			return clearStatusSoon()
		}
		return m.pagerCmd(string(data))

	case inputtypes.ToggleHelpAction:
		return m.pagerCmd(m.helpRender.RenderHelpContent())

	case inputtypes.SaveConfigAction:
		return m.saveConfigCmd()

	case inputtypes.QuitAction:
		saveCfg := !a.Force
		return func() tea.Msg { return quitMsg{saveConfig: saveCfg} }
	}

	return nil
}

// handleNonKeyboardMsg handles non-keyboard messages
func (m *Model) handleNonKeyboardMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		return m.handleEvent(msg.Event)

	case galleryDataMsg:
		m.state.ApplyGallery(msg.snap, msg.pictures)
		m.state.ModelLabel = msg.label
		m.state.Loading = false
		m.ensureSelectedVisible()
		return m, nil

	case modelsMsg:
		if msg.err != nil {
			log.Printf("Error listing models: %v", msg.err)
			return m, nil
		}
		m.state.Models = msg.models
		return m, nil

	case tickMsg:
		// Don't continue tick loop if we're in pager mode
		if m.inPagerMode {
			return m, nil
		}
		return m, tick()

	case reloadDoneMsg:
		m.state.Loading = false
		if msg.err != nil {
			m.state.StatusMessage = fmt.Sprintf("Reload failed: %v", msg.err)
			return m, clearStatusSoon()
		}
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil {
			m.state.StatusMessage = fmt.Sprintf("Delete failed: %v", msg.err)
			return m, clearStatusSoon()
		}
		return m, nil

	case shareDoneMsg:
		// A minted link is announced via ShareReadyEvent
		if msg.err != nil {
			m.state.StatusMessage = fmt.Sprintf("Share failed: %v", msg.err)
			return m, clearStatusSoon()
		}
		return m, nil

	case pickDoneMsg:
		if msg.err != nil {
			m.state.StatusMessage = fmt.Sprintf("Pick failed: %v", msg.err)
			return m, clearStatusSoon()
		}
		if !msg.added {
			source := "camera"
			if msg.fromLibrary {
				source = "photo library"
			}
			m.state.StatusMessage = fmt.Sprintf("Nothing to pick from the %s", source)
			return m, clearStatusSoon()
		}
		return m, nil

	case switchDoneMsg:
		m.state.Loading = false
		if msg.err != nil {
			m.state.StatusMessage = fmt.Sprintf("Cannot switch to %s: %v", msg.model, msg.err)
			return m, clearStatusSoon()
		}
		return m, m.fetchModels()

	case labelDoneMsg:
		if msg.err != nil {
			m.state.StatusMessage = fmt.Sprintf("Failed to save label: %v", msg.err)
			return m, clearStatusSoon()
		}
		m.state.ModelLabel = msg.label
		m.state.StatusMessage = "Label saved"
		return m, clearStatusSoon()

	case saveConfigDoneMsg:
		if msg.err != nil {
			m.state.StatusMessage = fmt.Sprintf("Failed to save config: %v", msg.err)
		} else {
			m.state.StatusMessage = "Config saved"
		}
		return m, clearStatusSoon()

	case pagerDoneMsg:
		if msg.err != nil {
			// Pager failed: log only; do not surface in status bar
			log.Printf("Pager failed: %v", msg.err)
		}
		return m, nil

	case pauseRenderingMsg:
		// Signal that rendering should be paused for the external pager
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		// RestoreTerminal() handles the actual resuming
		m.inPagerMode = false
		return m, nil

	case clearStatusMsg:
		m.state.StatusMessage = ""
		return m, nil

	case quitMsg:
		if msg.saveConfig {
			cfg := *m.config
			cfg.Gallery.Model = m.state.Model
			cfg.Gallery.Decorator = m.state.DecoratorOn
			if err := config.Save(cfg); err != nil {
				log.Printf("Error saving config on exit: %v", err)
			}
		}
		return m, tea.Quit

	default:
		// Other messages are handled elsewhere
		return m, nil
	}
}

// handleEvent processes domain events forwarded from the bus
func (m *Model) handleEvent(event eventbus.DomainEvent) (tea.Model, tea.Cmd) {
	switch e := event.(type) {
	case domain.GalleryReloadedEvent:
		return m, m.refreshGallery()

	case domain.SelectionChangedEvent:
		// Selection toggles leave the picture list alone, so skip the
		// record resolve when the URLs still line up
		if m.state.ApplySelection(m.controller.Snapshot()) {
			return m, nil
		}
		return m, m.refreshGallery()

	case domain.PictureOpenedEvent:
		for _, p := range m.state.Pictures {
			if p.URL == e.URL {
				m.state.InfoContent = m.buildPictureInfo(p)
				m.state.ShowInfo = true
				break
			}
		}
		return m, nil

	case domain.PicturesDeletedEvent:
		if e.All {
			m.state.StatusMessage = fmt.Sprintf("Deleted all %d pictures", len(e.URLs))
		} else {
			m.state.StatusMessage = fmt.Sprintf("Deleted %d picture(s)", len(e.URLs))
		}
		return m, clearStatusSoon()

	case domain.MarkerAddedEvent:
		if e.Model == m.state.Model {
			m.state.StatusMessage = fmt.Sprintf("New marker picture for %s", e.Model)
			return m, clearStatusSoon()
		}
		return m, nil

	case domain.DecoratorToggledEvent:
		m.state.DecoratorOn = e.Enabled
		return m, nil

	case domain.ConfirmRequestedEvent:
		if m.confirmReply != nil {
			// Only one dialog at a time; decline latecomers
			e.Reply <- false
			return m, nil
		}
		m.confirmReply = e.Reply
		m.confirmText = e.Req.Title + "\n\n" + e.Req.Message
		m.inputHandler.ChangeMode(inputtypes.ModeConfirm, &input.ModelContext{State: m.state})
		return m, nil

	case domain.ShareReadyEvent:
		m.state.StatusMessage = fmt.Sprintf("Share link (%d pictures): %s", e.Link.Count, e.Link.URL)
		// No auto clear so the link can be copied
		return m, nil

	case domain.ImportStartedEvent:
		m.state.Importing = true
		return m, nil

	case domain.ImportCompletedEvent:
		if e.Model == m.state.Model && e.Imported > 0 {
			m.state.StatusMessage = fmt.Sprintf("Imported %d picture(s) from the camera", e.Imported)
			return m, clearStatusSoon()
		}
		return m, nil

	case domain.ModelSwitchedEvent:
		m.state.Model = e.Model
		m.state.ModelLabel = ""
		m.state.ClearSearch()
		return m, nil

	case domain.ErrorEvent:
		if e.Err != nil {
			m.state.StatusMessage = fmt.Sprintf("%s: %v", e.Message, e.Err)
		} else {
			m.state.StatusMessage = e.Message
		}
		return m, clearStatusSoon()

	default:
		return m, nil
	}
}

// tick returns a command that sends a tick message after a delay
func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// clearStatusSoon returns a command that clears the status bar after a delay
func clearStatusSoon() tea.Cmd {
	return tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
