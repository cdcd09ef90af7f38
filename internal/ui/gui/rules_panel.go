//go:build !headless

package gui

import (
	"context"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"printwatch/internal/config"
	"printwatch/internal/rules"
	"printwatch/internal/ui/health"
)

func (c *controller) buildRulePanel() fyne.CanvasObject {
	c.ruleRowsBox = container.NewVBox()
	c.ruleList = container.NewVScroll(c.ruleRowsBox)
	c.ruleNotice = widget.NewLabel("No rules configured")
	c.ruleEmpty = c.emptyNotice(c.ruleNotice)
	return container.NewPadded(container.NewBorder(
		widget.NewLabel("Monitor Rules"),
		nil,
		nil,
		nil,
		container.NewMax(c.ruleList, c.ruleEmpty),
	))
}

// previewConfig resolves the current options so rules show before watching
// starts. Resolution errors are shown in place of the rule list.
func (c *controller) previewConfig() {
	resolved, err := config.Resolve(c.currentOptions())
	if err != nil {
		c.activeRules = nil
		c.previewDetail = err.Error()
		return
	}
	c.applyResolved(resolved)
	if len(resolved.Rules) == 0 {
		c.previewDetail = "No rules configured; set a rules file in Settings."
	}
}

func (c *controller) applyResolved(resolved config.Resolved) {
	c.activeRules = resolved.Rules
	c.activeArchive = resolved.Archive
	c.activeRecordDir = resolved.RecordDir
	c.previewDetail = ""
	c.archiveText.SetText("Archive: " + resolved.Archive)
}

func (c *controller) startRuleHealthLoop() {
	c.startBackgroundLoop("rule health", func(ctx context.Context) {
		ticker := time.NewTicker(health.RefreshRate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var list []rules.Rule
				var archive string
				fyne.DoAndWait(func() {
					list = append(c.activeRules[:0:0], c.activeRules...)
					archive = c.activeArchive
				})
				rows, detail := health.Compute(list, archive, time.Now())
				fyne.Do(func() {
					c.applyRuleHealth(rows, detail)
				})
			}
		}
	})
}

func (c *controller) refreshRuleHealth() {
	rows, detail := health.Compute(c.activeRules, c.activeArchive, time.Now())
	c.applyRuleHealth(rows, detail)
}

func (c *controller) applyRuleHealth(rows []health.Row, detail string) {
	if len(c.activeRules) == 0 && c.previewDetail != "" {
		detail = c.previewDetail
	}
	c.ruleRows = rows
	c.ruleDetail = detail
	c.rebuildRuleRows()
	c.refreshRulePlaceholder()
}

func (c *controller) refreshRulePlaceholder() {
	if c.ruleList == nil || c.ruleEmpty == nil {
		return
	}
	if len(c.ruleRows) > 0 {
		c.ruleEmpty.Hide()
		c.ruleList.Show()
		return
	}
	notice := c.ruleDetail
	if strings.TrimSpace(notice) == "" {
		notice = "No rules configured"
	}
	c.ruleNotice.SetText(notice)
	c.ruleList.Hide()
	c.ruleEmpty.Show()
}

func (c *controller) rebuildRuleRows() {
	if c.ruleRowsBox == nil {
		return
	}
	rows := make([]fyne.CanvasObject, 0, len(c.ruleRows)+1)
	for _, item := range c.ruleRows {
		row := newStatusBadgeLabel(c.tooltipHandlers(), item.Name+"  ->  "+item.Target, statusBadgeLabelOptions{})
		row.SetStatus(ruleColor(item.Kind), item.Reason)
		row.Label().Truncation = fyne.TextTruncateEllipsis
		rows = append(rows, row.Object())
	}
	if len(c.ruleRows) > 0 && c.ruleDetail != "" {
		notice := widget.NewLabel(c.ruleDetail)
		notice.Importance = widget.DangerImportance
		rows = append(rows, notice)
	}
	c.ruleRowsBox.Objects = rows
	c.ruleRowsBox.Refresh()
}

func ruleColor(kind health.Kind) color.NRGBA {
	switch kind {
	case health.Active:
		return successColor
	case health.Warn:
		return warningColor
	case health.Stale:
		return ruleStaleColor
	default:
		return errorColor
	}
}
