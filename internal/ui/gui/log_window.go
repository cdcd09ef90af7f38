//go:build !headless

package gui

import (
	"context"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const maxLogRows = 1000

func (c *controller) initLogWindow() {
	c.logGrid = widget.NewTextGrid()
	c.logGrid.Scroll = fyne.ScrollNone
	c.logScroll = container.NewVScroll(c.logGrid)
	c.logSelectable = widget.NewMultiLineEntry()
	c.logSelectable.Wrapping = fyne.TextWrapWord
	c.logSelectScroll = container.NewVScroll(c.logSelectable)
	c.logSelectScroll.Hide()
	c.followEnabled = true
	c.logCols = c.logWrapColumns()
	c.selectableLogs = widget.NewCheck("Selectable text", func(v bool) {
		if v {
			c.logScroll.Hide()
			c.logSelectScroll.Show()
		} else {
			c.logSelectScroll.Hide()
			c.logScroll.Show()
		}
		if c.followEnabled {
			c.scrollLogsToBottom()
		}
	})

	c.followButton = widget.NewButton("Following", func() {
		c.setFollowEnabled(true)
		c.scrollLogsToBottom()
	})
	c.followButton.Disable()
	clearButton := widget.NewButton("Clear", func() {
		c.logRawLines = nil
		c.logRows = nil
		c.refreshLogView()
		c.scrollLogsToBottom()
	})
	c.logWindow = c.app.NewWindow("printwatch Logs")
	c.logWindow.Resize(fyne.NewSize(900, 520))
	options := container.NewHBox(c.debugLogs, c.selectableLogs, layout.NewSpacer())
	header := container.NewBorder(nil, nil, clearButton, c.followButton, options)
	logBG := canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	c.logScroll.OnScrolled = func(pos fyne.Position) {
		if c.followJumping {
			return
		}
		if !c.logAtBottom(pos) {
			c.setFollowEnabled(false)
		}
	}
	c.logWindow.SetContent(container.NewBorder(header, nil, nil, nil, container.NewMax(logBG, c.logScroll, c.logSelectScroll)))
	c.logWindow.SetCloseIntercept(func() {
		if c.shuttingDown {
			return
		}
		c.setLogVisibility(false)
		c.refreshTrayMenu()
	})

	c.watchLogGridWidth()
}

func (c *controller) setLogVisibility(visible bool) {
	c.logWindowOpen = visible
	if !visible {
		c.logWindow.Hide()
		return
	}
	c.logWindow.Show()
	c.logWindow.RequestFocus()
}

func (c *controller) setFollowEnabled(enabled bool) {
	c.followEnabled = enabled
	if c.followButton == nil {
		return
	}
	if enabled {
		c.followButton.SetText("Following")
		c.followButton.Disable()
		return
	}
	c.followButton.SetText("Follow")
	c.followButton.Enable()
}

func (c *controller) scrollLogsToBottom() {
	c.followJumping = true
	defer func() { c.followJumping = false }()
	if c.selectableLogs != nil && c.selectableLogs.Checked {
		c.logSelectScroll.ScrollToBottom()
		return
	}
	c.logScroll.ScrollToBottom()
}

func (c *controller) logAtBottom(pos fyne.Position) bool {
	contentHeight := c.logGrid.MinSize().Height
	viewportHeight := c.logScroll.Size().Height
	if contentHeight <= viewportHeight+1 {
		return true
	}
	return pos.Y+viewportHeight >= contentHeight-1
}

// watchLogGridWidth rewraps the log when the window width changes; fyne has
// no resize callback for a scroll container.
func (c *controller) watchLogGridWidth() {
	c.startBackgroundLoop("log wrap watcher", func(ctx context.Context) {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fyne.Do(func() {
					next := c.logWrapColumns()
					if next == c.logCols {
						return
					}
					c.logCols = next
					c.rebuildLogRows()
					c.refreshLogView()
					if c.followEnabled {
						c.scrollLogsToBottom()
					}
				})
			}
		}
	})
}

func (c *controller) appendLog(chunk string) {
	lines := splitLogLines(chunk)
	if len(lines) == 0 {
		return
	}
	c.logRawLines = append(c.logRawLines, lines...)
	if len(c.logRawLines) > maxLogRows {
		c.logRawLines = append([]string(nil), c.logRawLines[len(c.logRawLines)-maxLogRows:]...)
	}
	c.rebuildLogRows()
	c.refreshLogView()
	if c.followEnabled {
		c.scrollLogsToBottom()
	}
}

func (c *controller) rebuildLogRows() {
	wrapped := wrapANSILines(c.logRawLines, c.logWrapColumns())
	if len(wrapped) > maxLogRows {
		wrapped = wrapped[len(wrapped)-maxLogRows:]
	}
	rows := make([]widget.TextGridRow, 0, len(wrapped))
	for _, line := range wrapped {
		rows = append(rows, textGridRow(line))
	}
	c.logRows = rows
}

func (c *controller) refreshLogView() {
	c.logGrid.Rows = c.logRows
	c.logGrid.Refresh()
	plain := make([]string, 0, len(c.logRawLines))
	for _, line := range c.logRawLines {
		plain = append(plain, stripANSIText(line))
	}
	c.logSelectable.SetText(strings.Join(plain, "\n"))
}

func (c *controller) logWrapColumns() int {
	widthPx := c.logGrid.Size().Width
	if c.logScroll != nil && c.logScroll.Size().Width > 0 {
		widthPx = c.logScroll.Size().Width
	}
	if widthPx <= 0 {
		widthPx = 900
	}
	charSize := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
	if charSize.Width <= 0 {
		return 120
	}
	cols := min(max(int(widthPx/charSize.Width), 40), 240)
	return cols - 2
}
