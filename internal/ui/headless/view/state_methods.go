package view

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"printwatch/internal/ui/headless/theme"
)

const (
	TabOverview = iota
	TabSettings
)

const (
	DefaultNonPanelLayoutReserveMin = 24
	DefaultMinPanelHeight           = 8
	ConfirmQuitChoiceCancel         = 0
)

const (
	toggleControlIndex = iota
	panelControlIndex
	quitControlIndex
	debugControlIndex
)

const (
	overviewFocusCountWithoutLogs = 3
	overviewFocusCountWithLogs    = 4
	settingsExtraFocusSlots       = 4
)

const (
	minPageWidth = 24
)

const (
	panelHorizontalInset      = 8
	minViewportDimension      = 1
	minPanelViewportWidth     = 20
	panelViewportHeightOffset = 3
	minPanelViewportHeight    = 3
	panelFrameOverhead        = 4
	filePickerHeightOffset    = 14
	minFilePickerHeight       = 8
	borderRows                = 2
	sectionGapRows            = 2
)

func (s *State) ApplyFocus() {
	for i := range s.Inputs {
		if s.Tab == TabSettings && i == s.Focus {
			s.Inputs[i].Focus()
			s.BrowseInput = i
		} else {
			s.Inputs[i].Blur()
		}
	}
}

func (s State) FocusCount() int {
	if s.Tab == TabOverview {
		if s.ShowLogs {
			return overviewFocusCountWithLogs
		}
		return overviewFocusCountWithoutLogs
	}
	return len(s.Inputs) + settingsExtraFocusSlots
}

func (s State) ToggleIndex() int    { return toggleControlIndex }
func (s State) PanelIndex() int     { return panelControlIndex }
func (s State) QuitIndex() int      { return quitControlIndex }
func (s State) DebugIndex() int     { return debugControlIndex }
func (s State) BrowseIndex() int    { return len(s.Inputs) }
func (s State) AutoStartIndex() int { return len(s.Inputs) + panelControlIndex }
func (s State) SaveIndex() int      { return len(s.Inputs) + quitControlIndex }
func (s State) CancelIndex() int    { return len(s.Inputs) + debugControlIndex }

func (s State) ContentWidth() int {
	width := max(s.Width, 1)
	// Some Windows terminals wrap when a styled line lands exactly on the
	// reported last column.
	if runtime.GOOS == "windows" && width > 1 {
		width--
	}
	return width
}

func (s State) PageWidth() int {
	return max(s.ContentWidth()-theme.PanelStyle.GetHorizontalFrameSize(), minPageWidth)
}

func (s State) PanelHeight(reserve int, minHeight int) int {
	available := s.Height - reserve
	if available < minHeight {
		return minHeight
	}
	return available
}

// PanelText is what the bottom panel shows: the diagnostic log when logs
// are toggled on, otherwise today's records.
func (s State) PanelText() string {
	if s.ShowLogs {
		return s.LogText
	}
	return s.RecordText
}

func (s *State) SetPanelContent() {
	width := max(s.PanelView.Width, minViewportDimension)
	s.PanelView.SetContent(wrapText(s.PanelText(), width))
	if s.FollowPanel {
		s.PanelView.GotoBottom()
	}
}

func (s *State) ResizePanel(reserve int, minHeight int) {
	w := max(s.PageWidth()-panelHorizontalInset, minPanelViewportWidth)
	h := max(s.PanelHeight(reserve, minHeight)-panelViewportHeightOffset, minPanelViewportHeight)
	s.PanelView.Width = w
	s.PanelView.Height = h
	s.SetPanelContent()
}

func (s *State) FitPanelViewportHeight(otherSections []string, reserve int, minHeight int) {
	if s.Height <= 0 {
		return
	}
	desired := max(s.PanelHeight(reserve, minHeight)-panelViewportHeightOffset, minPanelViewportHeight)
	otherHeight := lipgloss.Height(strings.Join(otherSections, "\n\n"))
	availablePanel := s.Height - borderRows - otherHeight - sectionGapRows
	maxHeight := max(availablePanel-panelFrameOverhead, minPanelViewportHeight)
	s.PanelView.Height = min(desired, maxHeight)
}

func (s *State) ResizeFilePicker() {
	h := max(s.Height-filePickerHeightOffset, minFilePickerHeight)
	s.FilePicker.SetHeight(h)
}

func (s State) WithDraftFromControls() State {
	s.DraftSettings.RulesFile = strings.TrimSpace(s.Inputs[RulesFileInputIndex].Value())
	s.DraftSettings.Archive = strings.TrimSpace(s.Inputs[ArchiveInputIndex].Value())
	s.DraftSettings.RecordDir = strings.TrimSpace(s.Inputs[RecordDirInputIndex].Value())
	s.DraftSettings.AutoStart = s.AutoStart
	s.DraftSettings.Debug = s.DebugOn
	s.SettingsDirty = s.DraftSettings != s.SavedSettings
	return s
}

func (s State) WithDraftAppliedToControls() State {
	s.Inputs[RulesFileInputIndex].SetValue(strings.TrimSpace(s.DraftSettings.RulesFile))
	s.Inputs[ArchiveInputIndex].SetValue(strings.TrimSpace(s.DraftSettings.Archive))
	s.Inputs[RecordDirInputIndex].SetValue(strings.TrimSpace(s.DraftSettings.RecordDir))
	s.AutoStart = s.DraftSettings.AutoStart
	return s
}

func (s State) WithSaveCommitted() State {
	s.SavedSettings = s.DraftSettings
	s.SettingsDirty = false
	return s
}

func (s State) WithCancelDraft() State {
	s.DraftSettings = s.SavedSettings
	s = s.WithDraftAppliedToControls()
	s.SettingsDirty = false
	return s
}

// WithSelectedPath stores a picker result in the input the picker was
// opened for.
func (s State) WithSelectedPath(path string) State {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	index := s.BrowseInput
	if index < 0 || index >= len(s.Inputs) {
		index = ArchiveInputIndex
	}
	s.Inputs[index].SetValue(path)
	s.FilePickerOpen = false
	return s.WithDraftFromControls()
}

// PickingFile reports whether the picker selects a rules file rather than a
// directory.
func (s State) PickingFile() bool {
	return s.BrowseInput == RulesFileInputIndex
}

func wrapText(text string, width int) string {
	if width <= 0 || text == "" {
		return text
	}
	return ansi.Wrap(text, width, "")
}
