//go:build !headless

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	primaryColor = color.NRGBA{R: 64, G: 156, B: 196, A: 255}
	successColor = color.NRGBA{R: 72, G: 189, B: 109, A: 255}
	warningColor = color.NRGBA{R: 219, G: 167, B: 74, A: 255}
	errorColor   = color.NRGBA{R: 220, G: 84, B: 84, A: 255}
)

// printwatchTheme keeps the default look but pins the accent colours the
// status badges use, so badges and buttons agree in both variants.
type printwatchTheme struct {
	base fyne.Theme
}

func newPrintwatchTheme() fyne.Theme {
	return &printwatchTheme{base: theme.DefaultTheme()}
}

func (t *printwatchTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return primaryColor
	case theme.ColorNameSuccess:
		return successColor
	case theme.ColorNameWarning:
		return warningColor
	case theme.ColorNameError:
		return errorColor
	}
	return t.base.Color(name, variant)
}

func (t *printwatchTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *printwatchTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *printwatchTheme) Size(name fyne.ThemeSizeName) float32 {
	return t.base.Size(name)
}
