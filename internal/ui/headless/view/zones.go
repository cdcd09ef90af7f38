package view

import "fmt"

const (
	zoneTabOverview = "tab-overview"
	zoneTabSettings = "tab-settings"

	zoneOverviewToggle = "overview-toggle"
	zoneOverviewPanel  = "overview-panel"
	zoneOverviewQuit   = "overview-quit"
	zoneOverviewDebug  = "overview-debug"

	zoneSettingsBrowse    = "settings-browse"
	zoneSettingsAutoStart = "settings-auto-start"
	zoneSettingsSave      = "settings-save"
	zoneSettingsCancel    = "settings-cancel"

	zoneDialogQuitCancel = "dialog-quit-cancel"
	zoneDialogQuitAccept = "dialog-quit-accept"
)

func zoneSettingsInput(index int) string {
	return fmt.Sprintf("settings-input-%d", index)
}
