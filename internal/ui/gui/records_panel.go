//go:build !headless

package gui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"printwatch/internal/actionlog"
	"printwatch/internal/logging"
)

const maxRecordRows = 500

type recordRow struct {
	Text   string
	Status actionlog.Status
}

func (c *controller) buildRecordPanel() fyne.CanvasObject {
	c.recordList = widget.NewList(
		func() int { return len(c.records) },
		func() fyne.CanvasObject {
			item := newStatusBadgeLabel(statusBadgeHandlers{}, "record", statusBadgeLabelOptions{})
			item.Label().Truncation = fyne.TextTruncateEllipsis
			item.Label().TextStyle = fyne.TextStyle{Monospace: true}
			obj := item.Object()
			c.recordItems[obj] = item
			return obj
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			item, ok := c.recordItems[obj]
			if !ok || id < 0 || id >= len(c.records) {
				return
			}
			row := c.records[id]
			item.SetText(row.Text)
			item.SetStatus(recordColor(row.Status), "")
		},
	)
	c.recordEmpty = c.emptyNotice(widget.NewLabel("No files handled today."))
	return container.NewPadded(container.NewBorder(
		widget.NewLabel("Today's Records"),
		nil,
		nil,
		nil,
		container.NewMax(c.recordList, c.recordEmpty),
	))
}

// loadTodaysRecords replaces the record list with the lines already in
// today's record file.
func (c *controller) loadTodaysRecords() {
	c.records = nil
	c.printed, c.partial, c.failed = 0, 0, 0
	if strings.TrimSpace(c.activeRecordDir) != "" {
		lines, err := actionlog.ReadDay(c.activeRecordDir, time.Now())
		if err != nil {
			c.logger.Warn("failed to read today's records", logging.Field("dir", c.activeRecordDir), logging.Field("error", err))
		}
		for _, line := range lines {
			c.pushRecord(recordRow{Text: line, Status: actionlog.LineStatus(line)})
		}
	}
	c.refreshRecords()
}

func (c *controller) appendRecord(entry actionlog.Entry) {
	c.pushRecord(recordRow{
		Text:   strings.TrimSuffix(entry.Line(), "\n"),
		Status: entry.Status(),
	})
	c.refreshRecords()
	if c.recordList != nil {
		c.recordList.ScrollToBottom()
	}
	if entry.Err != nil {
		c.logger.Warn("record line was not persisted", logging.Field("record_id", entry.ID), logging.Field("error", entry.Err))
	}
}

func (c *controller) pushRecord(row recordRow) {
	switch row.Status {
	case actionlog.StatusPrinted:
		c.printed++
	case actionlog.StatusFailed:
		c.failed++
	default:
		c.partial++
	}
	c.records = append(c.records, row)
	if len(c.records) > maxRecordRows {
		c.records = append([]recordRow(nil), c.records[len(c.records)-maxRecordRows:]...)
	}
}

func (c *controller) refreshRecords() {
	if c.summaryText != nil {
		c.summaryText.SetText(fmt.Sprintf("Today: %d printed, %d partial, %d failed", c.printed, c.partial, c.failed))
	}
	if c.recordList == nil || c.recordEmpty == nil {
		return
	}
	c.recordList.Refresh()
	if len(c.records) == 0 {
		c.recordList.Hide()
		c.recordEmpty.Show()
		return
	}
	c.recordEmpty.Hide()
	c.recordList.Show()
}

func recordColor(status actionlog.Status) color.NRGBA {
	switch status {
	case actionlog.StatusPrinted:
		return successColor
	case actionlog.StatusPartial:
		return warningColor
	default:
		return errorColor
	}
}
