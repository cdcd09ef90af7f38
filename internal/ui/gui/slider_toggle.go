//go:build !headless

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	sliderToggleWidth  = float32(44)
	sliderToggleHeight = float32(24)
)

var sliderOffColor = color.NRGBA{R: 115, G: 115, B: 115, A: 255}

type sliderToggle struct {
	widget.BaseWidget

	Checked   bool
	OnChanged func(bool)

	track *canvas.Rectangle
	thumb *canvas.Circle
}

func newSliderToggle(onChanged func(bool)) *sliderToggle {
	t := &sliderToggle{
		OnChanged: onChanged,
		track:     canvas.NewRectangle(sliderOffColor),
		thumb:     canvas.NewCircle(color.NRGBA{R: 245, G: 245, B: 245, A: 255}),
	}
	t.ExtendBaseWidget(t)
	return t
}

func (t *sliderToggle) SetChecked(checked bool) {
	if t.Checked == checked {
		return
	}
	t.Checked = checked
	if t.OnChanged != nil {
		t.OnChanged(checked)
	}
	t.Refresh()
}

func (t *sliderToggle) MinSize() fyne.Size {
	return fyne.NewSize(sliderToggleWidth, sliderToggleHeight)
}

func (t *sliderToggle) Tapped(*fyne.PointEvent) {
	t.SetChecked(!t.Checked)
}

func (t *sliderToggle) TappedSecondary(*fyne.PointEvent) {}

func (t *sliderToggle) CreateRenderer() fyne.WidgetRenderer {
	return &sliderToggleRenderer{toggle: t, objs: []fyne.CanvasObject{t.track, t.thumb}}
}

type sliderToggleRenderer struct {
	toggle *sliderToggle
	objs   []fyne.CanvasObject
}

func (r *sliderToggleRenderer) Layout(size fyne.Size) {
	height := min(max(size.Height, 16), sliderToggleHeight)
	width := max(size.Width, sliderToggleWidth)

	track := r.toggle.track
	track.CornerRadius = height / 2
	track.Resize(fyne.NewSize(width, height))
	track.Move(fyne.NewPos(0, 0))

	diameter := max(height-4, 10)
	x := float32(2)
	if r.toggle.Checked {
		x = width - diameter - 2
	}
	r.toggle.thumb.Resize(fyne.NewSize(diameter, diameter))
	r.toggle.thumb.Move(fyne.NewPos(x, (height-diameter)/2))
}

func (r *sliderToggleRenderer) MinSize() fyne.Size {
	return fyne.NewSize(sliderToggleWidth, sliderToggleHeight)
}

func (r *sliderToggleRenderer) Refresh() {
	r.Layout(r.toggle.Size())
	if r.toggle.Checked {
		r.toggle.track.FillColor = theme.Color(theme.ColorNamePrimary)
	} else {
		r.toggle.track.FillColor = sliderOffColor
	}
	r.toggle.thumb.FillColor = theme.Color(theme.ColorNameForeground)
	canvas.Refresh(r.toggle.track)
	canvas.Refresh(r.toggle.thumb)
}

func (r *sliderToggleRenderer) Objects() []fyne.CanvasObject {
	return r.objs
}

func (r *sliderToggleRenderer) Destroy() {}
