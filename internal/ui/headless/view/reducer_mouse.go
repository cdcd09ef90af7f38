package view

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

type MouseEffect int

const (
	MouseEffectNone MouseEffect = iota
	MouseEffectActivateFocused
	MouseEffectConfirmQuitAccept
)

func ReduceMouse(state State, msg tea.MouseMsg) (State, tea.Cmd, MouseEffect) {
	if state.ErrorModalText != "" {
		if isLeftClick(msg) {
			state.ErrorModalText = ""
		}
		return state, nil, MouseEffectNone
	}

	if state.ConfirmQuit {
		if !isLeftClick(msg) {
			return state, nil, MouseEffectNone
		}
		switch {
		case inZone(zoneDialogQuitAccept, msg):
			state.ConfirmQuitChoice = confirmChoiceQuit
			return state, nil, MouseEffectConfirmQuitAccept
		case inZone(zoneDialogQuitCancel, msg):
			state.ConfirmQuit = false
		}
		return state, nil, MouseEffectNone
	}

	state.HoverZone = hoveredZone(state, msg)
	if isLeftClick(msg) {
		return reduceClick(state, msg)
	}

	var cmds []tea.Cmd
	if state.Tab == TabOverview {
		var cmd tea.Cmd
		state.RightView, cmd = state.RightView.Update(msg)
		cmds = append(cmds, cmd)
		state.PanelView, cmd = state.PanelView.Update(msg)
		cmds = append(cmds, cmd)
		if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
			state.FollowPanel = state.PanelView.AtBottom()
		}
	}
	return state, tea.Batch(cmds...), MouseEffectNone
}

func reduceClick(state State, msg tea.MouseMsg) (State, tea.Cmd, MouseEffect) {
	switch state.HoverZone {
	case zoneTabOverview:
		return state.WithTab(TabOverview), nil, MouseEffectNone
	case zoneTabSettings:
		return state.WithTab(TabSettings), nil, MouseEffectNone
	}

	index, ok := clickTarget(state, state.HoverZone)
	if !ok {
		return state, nil, MouseEffectNone
	}
	state.Focus = index
	state.ApplyFocus()
	if state.Tab == TabSettings && index < len(state.Inputs) {
		return state, nil, MouseEffectNone
	}
	return state, nil, MouseEffectActivateFocused
}

func clickTarget(state State, id string) (int, bool) {
	if state.Tab == TabOverview {
		switch id {
		case zoneOverviewToggle:
			return state.ToggleIndex(), true
		case zoneOverviewPanel:
			return state.PanelIndex(), true
		case zoneOverviewQuit:
			return state.QuitIndex(), true
		case zoneOverviewDebug:
			if state.ShowLogs {
				return state.DebugIndex(), true
			}
		}
		return 0, false
	}
	switch id {
	case zoneSettingsBrowse:
		return state.BrowseIndex(), true
	case zoneSettingsAutoStart:
		return state.AutoStartIndex(), true
	case zoneSettingsSave:
		return state.SaveIndex(), true
	case zoneSettingsCancel:
		return state.CancelIndex(), true
	}
	for i := range state.Inputs {
		if id == zoneSettingsInput(i) {
			return i, true
		}
	}
	return 0, false
}

func hoveredZone(state State, msg tea.MouseMsg) string {
	ids := []string{zoneTabOverview, zoneTabSettings}
	if state.Tab == TabOverview {
		ids = append(ids, zoneOverviewToggle, zoneOverviewPanel, zoneOverviewQuit, zoneOverviewDebug)
	} else {
		ids = append(ids, zoneSettingsBrowse, zoneSettingsAutoStart, zoneSettingsSave, zoneSettingsCancel)
		for i := range state.Inputs {
			ids = append(ids, zoneSettingsInput(i))
		}
	}
	for _, id := range ids {
		if inZone(id, msg) {
			return id
		}
	}
	return ""
}

func inZone(id string, msg tea.MouseMsg) bool {
	info := zone.Get(id)
	return info != nil && info.InBounds(msg)
}

func isLeftClick(msg tea.MouseMsg) bool {
	return msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft
}
