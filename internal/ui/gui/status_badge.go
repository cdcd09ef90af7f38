//go:build !headless

package gui

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	badgeDotSize      = float32(12)
	badgeHoverTarget  = float32(24)
	badgeTooltipDelay = 180 * time.Millisecond
	badgeHideDelay    = 120 * time.Millisecond
)

type statusBadgeHandlers struct {
	Show func(string, fyne.Position)
	Move func(fyne.Position)
	Hide func()
}

// statusBadge is a coloured dot that shows its tooltip through the window's
// shared hover layer after a short delay.
type statusBadge struct {
	widget.BaseWidget

	dot      *canvas.Circle
	tooltip  string
	compact  bool
	handlers statusBadgeHandlers

	// pending is bumped on every hover change so stale timers do nothing.
	pending uint64
	hovered bool
	shown   bool
	pointer fyne.Position
}

var _ desktop.Hoverable = (*statusBadge)(nil)

func newStatusBadge(handlers statusBadgeHandlers) *statusBadge {
	b := &statusBadge{
		dot:      canvas.NewCircle(statusIdleColor),
		handlers: handlers,
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *statusBadge) SetStatus(fill color.NRGBA, tooltip string) {
	b.dot.FillColor = fill
	b.dot.Refresh()
	b.tooltip = tooltip
	switch {
	case tooltip == "":
		b.hideTooltip()
	case b.shown:
		b.showTooltip()
	}
}

// SetCompact shrinks the hover target to the dot so the badge lines up
// inside list rows.
func (b *statusBadge) SetCompact(compact bool) {
	b.compact = compact
	b.Refresh()
}

func (b *statusBadge) MinSize() fyne.Size {
	text := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{})
	height := max(text.Height, badgeDotSize+2)
	if b.compact {
		return fyne.NewSize(badgeDotSize+4, height)
	}
	return fyne.NewSize(badgeHoverTarget, max(height, badgeHoverTarget))
}

func (b *statusBadge) CreateRenderer() fyne.WidgetRenderer {
	anchor := canvas.NewRectangle(color.Transparent)
	anchor.SetMinSize(b.MinSize())
	dot := container.NewGridWrap(fyne.NewSize(badgeDotSize, badgeDotSize), b.dot)
	return widget.NewSimpleRenderer(container.NewStack(anchor, container.NewCenter(dot)))
}

func (b *statusBadge) MouseIn(ev *desktop.MouseEvent) {
	b.hovered = true
	b.trackPointer(ev)
	b.after(badgeTooltipDelay, func() {
		if b.hovered {
			b.showTooltip()
		}
	})
}

func (b *statusBadge) MouseMoved(ev *desktop.MouseEvent) {
	b.trackPointer(ev)
	if b.shown && b.handlers.Move != nil {
		b.handlers.Move(b.pointer)
	}
}

func (b *statusBadge) MouseOut() {
	b.hovered = false
	b.after(badgeHideDelay, func() {
		if !b.hovered {
			b.hideTooltip()
		}
	})
}

// after runs fn on the UI thread once delay has passed, unless another hover
// change happened in between.
func (b *statusBadge) after(delay time.Duration, fn func()) {
	b.pending++
	seq := b.pending
	time.AfterFunc(delay, func() {
		fyne.Do(func() {
			if b.pending == seq {
				fn()
			}
		})
	})
}

func (b *statusBadge) trackPointer(ev *desktop.MouseEvent) {
	if ev == nil {
		return
	}
	b.pointer = ev.AbsolutePosition
	if app := fyne.CurrentApp(); app != nil {
		base := app.Driver().AbsolutePositionForObject(b)
		b.pointer = base.Add(ev.Position)
	}
}

func (b *statusBadge) showTooltip() {
	if b.tooltip == "" {
		b.hideTooltip()
		return
	}
	if b.handlers.Show != nil {
		b.handlers.Show(b.tooltip, b.pointer)
	}
	b.shown = true
}

func (b *statusBadge) hideTooltip() {
	if b.shown && b.handlers.Hide != nil {
		b.handlers.Hide()
	}
	b.shown = false
}
