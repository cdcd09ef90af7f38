package view

type ActivateEffect int

const (
	ActivateEffectNone ActivateEffect = iota
	ActivateEffectStartWatching
	ActivateEffectStopWatching
	ActivateEffectRequestQuit
	ActivateEffectOpenBrowse
	ActivateEffectSaveSettings
	ActivateEffectDebugLevelChanged
)

func ReduceActivate(state State, running bool, busy bool) (State, ActivateEffect) {
	if state.Tab == TabOverview {
		switch state.Focus {
		case state.ToggleIndex():
			return state, ToggleEffect(running, busy)
		case state.PanelIndex():
			state.ShowLogs = !state.ShowLogs
			state.FollowPanel = true
			state.SetPanelContent()
			if !state.ShowLogs && state.Focus >= state.FocusCount() {
				state.Focus = state.FocusCount() - 1
			}
			return state, ActivateEffectNone
		case state.QuitIndex():
			return state, ActivateEffectRequestQuit
		case state.DebugIndex():
			state.DebugOn = !state.DebugOn
			state.DraftSettings.Debug = state.DebugOn
			state.SettingsDirty = state.DraftSettings != state.SavedSettings
			return state, ActivateEffectDebugLevelChanged
		default:
			return state, ActivateEffectNone
		}
	}

	switch state.Focus {
	case state.BrowseIndex():
		return state, ActivateEffectOpenBrowse
	case state.AutoStartIndex():
		state.AutoStart = !state.AutoStart
		state.DraftSettings.AutoStart = state.AutoStart
		state.SettingsDirty = state.DraftSettings != state.SavedSettings
		return state, ActivateEffectNone
	case state.SaveIndex():
		return state, ActivateEffectSaveSettings
	case state.CancelIndex():
		if !state.SettingsDirty {
			return state, ActivateEffectNone
		}
		return state.WithCancelDraft(), ActivateEffectNone
	default:
		return state, ActivateEffectNone
	}
}

// ToggleEffect picks the start/stop action; a session that is starting or
// stopping ignores the toggle.
func ToggleEffect(running bool, busy bool) ActivateEffect {
	switch {
	case busy:
		return ActivateEffectNone
	case running:
		return ActivateEffectStopWatching
	default:
		return ActivateEffectStartWatching
	}
}
