//go:build !headless

package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

func (c *controller) setupTray() {
	if _, ok := c.app.(desktop.App); !ok {
		return
	}
	c.refreshTrayMenu()
}

func (c *controller) refreshTrayMenu() {
	if c.shuttingDown {
		return
	}
	desk, ok := c.app.(desktop.App)
	if !ok {
		return
	}

	desk.SetSystemTrayIcon(AppIconResource())

	running := c.runner.IsRunning()

	openItem := fyne.NewMenuItem("Open Window", func() {
		c.win.Show()
		c.win.RequestFocus()
	})
	showLogsItem := fyne.NewMenuItem("Show Logs", func() {
		c.setLogVisibility(!c.logWindowOpen)
		c.refreshTrayMenu()
	})
	showLogsItem.Checked = c.logWindowOpen

	startItem := fyne.NewMenuItem("Start Watching", func() {
		c.startWatching(false)
		c.refreshTrayMenu()
	})
	startItem.Disabled = running || c.stopping

	stopItem := fyne.NewMenuItem("Stop Watching", func() {
		c.stopWatching()
		c.refreshTrayMenu()
	})
	stopItem.Disabled = !running || c.stopping

	minTrayItem := fyne.NewMenuItem("Close to tray", func() {
		next := !c.settings.MinimizeToTray
		c.settings.MinimizeToTray = next
		c.draft.MinimizeToTray = next
		c.minimizeToTray.SetChecked(next)
		c.persistSettings()
		c.refreshSettingsActions()
		c.refreshTrayMenu()
	})
	minTrayItem.Checked = c.settings.MinimizeToTray

	startMinItem := fyne.NewMenuItem("Start minimized", func() {
		next := !c.settings.StartMinimized
		c.settings.StartMinimized = next
		c.draft.StartMinimized = next
		c.startMinimized.SetChecked(next)
		c.persistSettings()
		c.refreshSettingsActions()
		c.refreshTrayMenu()
	})
	startMinItem.Checked = c.settings.StartMinimized

	exitItem := fyne.NewMenuItem("Exit", c.requestQuit)

	tray := fyne.NewMenu("printwatch",
		openItem,
		showLogsItem,
		startItem,
		stopItem,
		fyne.NewMenuItemSeparator(),
		minTrayItem,
		startMinItem,
		fyne.NewMenuItemSeparator(),
		exitItem,
	)
	desk.SetSystemTrayMenu(tray)
}
