//go:build !headless

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const statusBadgeLabelGapX = float32(4)

type statusBadgeLabelOptions struct {
	GapX float32
}

// statusBadgeLabel is a compact badge followed by a single-line label, used
// for rule and record rows.
type statusBadgeLabel struct {
	object *fyne.Container
	badge  *statusBadge
	label  *widget.Label
}

func newStatusBadgeLabel(handlers statusBadgeHandlers, text string, opts statusBadgeLabelOptions) *statusBadgeLabel {
	badge := newStatusBadge(handlers)
	badge.SetCompact(true)
	label := widget.NewLabel(text)
	label.Wrapping = fyne.TextWrapOff
	gapX := opts.GapX
	if gapX <= 0 {
		gapX = statusBadgeLabelGapX
	}
	gap := canvas.NewRectangle(color.Transparent)
	gap.SetMinSize(fyne.NewSize(gapX, 1))
	left := container.NewHBox(container.NewCenter(badge), gap)
	return &statusBadgeLabel{
		object: container.NewBorder(nil, nil, left, nil, label),
		badge:  badge,
		label:  label,
	}
}

func (s *statusBadgeLabel) Object() fyne.CanvasObject {
	return s.object
}

func (s *statusBadgeLabel) Label() *widget.Label {
	return s.label
}

func (s *statusBadgeLabel) SetText(text string) {
	s.label.SetText(text)
}

func (s *statusBadgeLabel) SetStatus(fill color.NRGBA, tooltip string) {
	s.badge.SetStatus(fill, tooltip)
}
