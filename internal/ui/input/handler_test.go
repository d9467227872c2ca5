package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"modelsnap/internal/domain"
	"modelsnap/internal/ui/input/types"
	"modelsnap/internal/ui/state"
)

func testContext(urls ...string) *ModelContext {
	st := state.NewAppState()
	for _, url := range urls {
		model, name, _ := domain.ParseURL(url)
		st.Pictures = append(st.Pictures, domain.Picture{URL: url, Model: model, Name: name})
	}
	return &ModelContext{State: st}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNormalModeNavigation(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext("snap://bridge/a.gif")

	actions, _ := h.HandleKey(runes("j"), ctx)
	require.Equal(t, []types.Action{types.NavigateAction{Direction: "down"}}, actions)

	actions, _ = h.HandleKey(tea.KeyMsg{Type: tea.KeyUp}, ctx)
	require.Equal(t, []types.Action{types.NavigateAction{Direction: "up"}}, actions)
}

func TestSpaceNeedsPicture(t *testing.T) {
	t.Parallel()
	h := New()

	actions, _ := h.HandleKey(tea.KeyMsg{Type: tea.KeySpace}, testContext())
	require.Empty(t, actions)

	actions, _ = h.HandleKey(tea.KeyMsg{Type: tea.KeySpace}, testContext("snap://bridge/a.gif"))
	require.Equal(t, []types.Action{types.ToggleSelectAction{Index: -1}}, actions)
}

func TestSearchModeRoundTrip(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext("snap://bridge/a.gif")

	actions, cmd := h.HandleKey(runes("/"), ctx)
	require.Empty(t, actions)
	require.NotNil(t, cmd)
	require.Equal(t, types.ModeSearch, h.GetMode())
	require.True(t, h.InTextMode())
	require.Equal(t, "Search: ", h.Prompt())

	actions, _ = h.HandleKey(runes("ab"), ctx)
	require.Equal(t, []types.Action{types.UpdateTextAction{Text: "ab"}}, actions)

	actions, _ = h.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	require.Equal(t, []types.Action{types.SubmitTextAction{Text: "ab", Mode: types.ModeSearch}}, actions)
	require.Equal(t, types.ModeNormal, h.GetMode())
	require.False(t, h.InTextMode())
}

func TestEscCancelsTextMode(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext()

	h.HandleKey(runes("/"), ctx)
	h.HandleKey(runes("x"), ctx)

	actions, _ := h.HandleKey(tea.KeyMsg{Type: tea.KeyEsc}, ctx)
	require.Equal(t, []types.Action{types.CancelTextAction{}}, actions)
	require.Equal(t, types.ModeNormal, h.GetMode())
	require.Empty(t, h.GetTextInput().Value())
}

func TestModelModeSubmits(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext()

	h.HandleKey(runes("m"), ctx)
	require.Equal(t, types.ModeModel, h.GetMode())

	h.HandleKey(runes("plant"), ctx)
	actions, _ := h.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	require.Equal(t, []types.Action{types.SubmitTextAction{Text: "plant", Mode: types.ModeModel}}, actions)
}

func TestLabelModePrefillsAndSkipsUnchanged(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext()
	ctx.State.ModelLabel = "Bridge West"

	h.HandleKey(runes("e"), ctx)
	require.Equal(t, types.ModeLabel, h.GetMode())
	require.Equal(t, "Bridge West", h.GetTextInput().Value())

	// Submitting the unchanged label is a cancel, not a save
	actions, _ := h.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	require.Equal(t, []types.Action{types.CancelTextAction{}}, actions)

	h.HandleKey(runes("e"), ctx)
	h.HandleKey(runes("!"), ctx)
	actions, _ = h.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	require.Equal(t, []types.Action{types.SetLabelAction{Label: "Bridge West!"}}, actions)
}

func TestConfirmModeAnswers(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext()

	h.ChangeMode(types.ModeConfirm, ctx)
	actions, _ := h.HandleKey(runes("y"), ctx)
	require.Equal(t, []types.Action{types.ConfirmResultAction{Accepted: true}}, actions)
	require.Equal(t, types.ModeNormal, h.GetMode())

	h.ChangeMode(types.ModeConfirm, ctx)
	actions, _ = h.HandleKey(runes("n"), ctx)
	require.Equal(t, []types.Action{types.ConfirmResultAction{Accepted: false}}, actions)
}

func TestConfirmModeSwallowsOtherKeys(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext()

	h.ChangeMode(types.ModeConfirm, ctx)
	actions, _ := h.HandleKey(runes("z"), ctx)
	require.Empty(t, actions)
	require.Equal(t, types.ModeConfirm, h.GetMode())
}

func TestDoubleGGoesHome(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext("snap://bridge/a.gif")

	actions, _ := h.HandleKey(runes("g"), ctx)
	require.Empty(t, actions)

	actions, _ = h.HandleKey(runes("g"), ctx)
	require.Equal(t, []types.Action{types.NavigateAction{Direction: "home"}}, actions)
}

func TestQuitKeys(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext()

	actions, _ := h.HandleKey(runes("q"), ctx)
	require.Equal(t, []types.Action{types.QuitAction{Force: false}}, actions)

	actions, _ = h.HandleKey(tea.KeyMsg{Type: tea.KeyCtrlC}, ctx)
	require.Equal(t, []types.Action{types.QuitAction{Force: true}}, actions)
}

func TestSearchNavigationNeedsQuery(t *testing.T) {
	t.Parallel()
	h := New()
	ctx := testContext("snap://bridge/a.gif")

	actions, _ := h.HandleKey(runes("n"), ctx)
	require.Empty(t, actions)

	ctx.State.SearchQuery = "a"
	actions, _ = h.HandleKey(runes("n"), ctx)
	require.Equal(t, []types.Action{types.SearchNavigateAction{Direction: "next"}}, actions)
}
