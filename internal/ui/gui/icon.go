//go:build !headless

package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

func AppIconResource() fyne.Resource {
	return theme.DocumentPrintIcon()
}
