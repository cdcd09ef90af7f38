package view

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyEffect int

const (
	KeyEffectNone KeyEffect = iota
	KeyEffectRequestQuit
	KeyEffectActivateFocused
	KeyEffectSaveSettings
	KeyEffectConfirmQuitAccept
	KeyEffectToggleWatching
)

const (
	confirmChoiceCount = 2
	confirmChoiceQuit  = 1
)

func ReduceKey(state State, msg tea.KeyMsg) (State, KeyEffect) {
	if state.ErrorModalText != "" {
		if msg.String() == "esc" || key.Matches(msg, state.Keys.Activate) {
			state.ErrorModalText = ""
		}
		return state, KeyEffectNone
	}

	if state.ConfirmQuit {
		switch {
		case msg.String() == "esc":
			state.ConfirmQuit = false
			return state, KeyEffectNone
		case key.Matches(msg, state.Keys.ModalToggle):
			state.ConfirmQuitChoice = (state.ConfirmQuitChoice + 1) % confirmChoiceCount
			return state, KeyEffectNone
		case key.Matches(msg, state.Keys.Activate):
			if state.ConfirmQuitChoice == confirmChoiceQuit {
				return state, KeyEffectConfirmQuitAccept
			}
			state.ConfirmQuit = false
			return state, KeyEffectNone
		default:
			return state, KeyEffectNone
		}
	}

	switch {
	case key.Matches(msg, state.Keys.Quit):
		return state, KeyEffectRequestQuit
	case key.Matches(msg, state.Keys.Toggle):
		return state, KeyEffectToggleWatching
	case key.Matches(msg, state.Keys.Follow) && state.Tab == TabOverview:
		state.FollowPanel = true
		state.PanelView.GotoBottom()
		return state, KeyEffectNone
	case msg.String() == "ctrl+s" && state.Tab == TabSettings:
		return state, KeyEffectSaveSettings
	case key.Matches(msg, state.Keys.PrevTab):
		return state.WithTab(TabOverview), KeyEffectNone
	case key.Matches(msg, state.Keys.NextTab):
		return state.WithTab(TabSettings), KeyEffectNone
	case key.Matches(msg, state.Keys.NextFocus):
		state.Focus = (state.Focus + 1) % state.FocusCount()
		state.ApplyFocus()
		return state, KeyEffectNone
	case key.Matches(msg, state.Keys.PrevFocus):
		state.Focus = (state.Focus + state.FocusCount() - 1) % state.FocusCount()
		state.ApplyFocus()
		return state, KeyEffectNone
	case key.Matches(msg, state.Keys.Activate):
		if state.Tab == TabOverview || state.Focus >= len(state.Inputs) {
			return state, KeyEffectActivateFocused
		}
	}

	return state, KeyEffectNone
}

// ReduceInput forwards msg to the focused settings input, or to the bottom
// panel on the overview so paging keys scroll it.
func ReduceInput(state State, msg tea.Msg) (State, tea.Cmd, bool) {
	if state.Tab == TabOverview {
		var cmd tea.Cmd
		state.PanelView, cmd = state.PanelView.Update(msg)
		state.FollowPanel = state.PanelView.AtBottom()
		return state, cmd, true
	}
	if state.Focus >= len(state.Inputs) {
		return state, nil, false
	}
	updated, cmd := state.Inputs[state.Focus].Update(msg)
	state.Inputs[state.Focus] = updated
	return state.WithDraftFromControls(), cmd, true
}

func (s State) WithTab(tab int) State {
	if s.Tab == tab {
		return s
	}
	s.Tab = tab
	s.Focus = 0
	s.ApplyFocus()
	return s
}
