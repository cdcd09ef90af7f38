//go:build !headless

package gui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"printwatch/internal/logging"
)

var rulesFileExtensions = []string{".yaml", ".yml", ".toml", ".json"}

func (c *controller) selectRulesFile() {
	picker := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.logger.Warn("rules file dialog failed", logging.Field("error", err))
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		_ = reader.Close()
		c.rulesFile.SetText(path)
	}, c.win)
	picker.SetFilter(storage.NewExtensionFileFilter(rulesFileExtensions))
	start := existingDir(filepath.Dir(strings.TrimSpace(c.rulesFile.Text)))
	if start != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(start)); err == nil {
			picker.SetLocation(lister)
		}
	}
	picker.Resize(fyne.NewSize(760, 520))
	picker.Show()
}

// selectDir opens the folder browser and writes the chosen folder into
// target.
func (c *controller) selectDir(title string, target *widget.Entry) {
	c.dirPickerTarget = target
	c.dirPickerCurrent = c.dirPickerStartPath(target.Text)

	if c.dirPickerWindow == nil {
		c.dirPickerWindow = c.app.NewWindow(title)
		c.dirPickerWindow.Resize(fyne.NewSize(760, 520))
		c.dirPickerPath = widget.NewEntry()
		c.dirPickerPath.OnSubmitted = func(value string) {
			c.openDirPickerPath(c.dirPickerStartPath(value))
		}
		upButton := widget.NewButton("Up", func() {
			parent := filepath.Dir(c.dirPickerCurrent)
			if parent == "" || parent == c.dirPickerCurrent {
				return
			}
			c.openDirPickerPath(parent)
		})
		useCurrent := widget.NewButton("Use Current Folder", func() {
			if c.dirPickerTarget != nil {
				c.dirPickerTarget.SetText(c.dirPickerCurrent)
			}
			c.dirPickerWindow.Hide()
		})
		closeButton := widget.NewButton("Close", func() {
			c.dirPickerWindow.Hide()
		})

		c.dirPickerList = widget.NewList(
			func() int { return len(c.dirPickerItems) },
			func() fyne.CanvasObject { return widget.NewLabel("directory") },
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				obj.(*widget.Label).SetText(c.dirPickerItems[id])
			},
		)
		c.dirPickerList.OnSelected = func(id widget.ListItemID) {
			if id < 0 || id >= len(c.dirPickerItems) {
				return
			}
			c.dirPickerList.UnselectAll()
			c.openDirPickerPath(c.dirPickerStartPath(filepath.Join(c.dirPickerCurrent, c.dirPickerItems[id])))
		}

		header := container.NewBorder(nil, nil, upButton, nil, c.dirPickerPath)
		actions := container.NewHBox(useCurrent, closeButton)
		c.dirPickerWindow.SetContent(container.NewBorder(header, actions, nil, nil, c.dirPickerList))
	}

	c.dirPickerWindow.SetTitle(title)
	c.openDirPickerPath(c.dirPickerCurrent)
	c.dirPickerWindow.Show()
	c.dirPickerWindow.RequestFocus()
}

func (c *controller) openDirPickerPath(path string) {
	c.dirPickerCurrent = path
	c.dirPickerPath.SetText(path)
	c.dirPickerItems = listSubdirs(path)
	c.dirPickerList.Refresh()
}

// dirPickerStartPath falls back to the home directory when path is empty or
// is not an existing directory. Missing archive folders are created at start,
// so an unset field starts from home rather than failing.
func (c *controller) dirPickerStartPath(path string) string {
	if dir := existingDir(path); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Clean(home)
	}
	return string(filepath.Separator)
}

func existingDir(path string) string {
	candidate := strings.TrimSpace(path)
	if candidate == "" || candidate == "." {
		return ""
	}
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return filepath.Clean(candidate)
	}
	return ""
}

func listSubdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	items := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			items = append(items, entry.Name())
		}
	}
	sort.Strings(items)
	return items
}
