package view

import (
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"printwatch/internal/config"
	"printwatch/internal/ui/headless/keyboard"
)

const (
	inputCount            = 3
	defaultInputCharLimit = 4096
	defaultInputWidth     = 80
	RulesFileInputIndex   = 0
	ArchiveInputIndex     = 1
	RecordDirInputIndex   = 2
	defaultTab            = TabOverview
	defaultPanelWidth     = 80
	defaultPanelHeight    = 20
	defaultPaneWidth      = 24
	defaultPaneHeight     = 8
	defaultSettingsHeight = 12
)

type State struct {
	Inputs []textinput.Model
	Focus  int
	Tab    int

	HelpView help.Model
	Keys     keyboard.Map

	ShowLogs      bool
	AutoStart     bool
	SettingsDirty bool
	FollowPanel   bool
	DebugOn       bool

	RecordText   string
	LogText      string
	PanelView    viewport.Model
	LeftView     viewport.Model
	RightView    viewport.Model
	SettingsView viewport.Model

	Width  int
	Height int

	ConfirmQuit       bool
	ConfirmQuitChoice int
	ErrorModalText    string
	FilePickerOpen    bool
	FilePicker        filepicker.Model
	BrowseInput       int
	HoverZone         string

	SavedSettings config.Settings
	DraftSettings config.Settings
}

func NewState(opts config.Options, saved config.Settings, defaultArchive string) State {
	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].CharLimit = defaultInputCharLimit
		inputs[i].Width = defaultInputWidth
		inputs[i].Prompt = ""
	}
	inputs[RulesFileInputIndex].Placeholder = "rules.yaml (searched in the config dirs when empty)"
	inputs[RulesFileInputIndex].SetValue(strings.TrimSpace(opts.RulesFile))
	inputs[ArchiveInputIndex].Placeholder = defaultArchive
	inputs[ArchiveInputIndex].SetValue(strings.TrimSpace(opts.Archive))
	inputs[RecordDirInputIndex].Placeholder = "working directory"
	inputs[RecordDirInputIndex].SetValue(strings.TrimSpace(opts.RecordDir))

	picker := filepicker.New()
	picker.ShowHidden = false
	picker.ShowSize = false
	picker.ShowPermissions = false
	picker.KeyMap.Open = key.NewBinding(key.WithKeys(" ", "right", "l"), key.WithHelp("space", "open"))
	picker.KeyMap.Select = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))

	draft := config.SettingsFromOptions(opts, saved)
	helpView := help.New()
	helpView.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	helpView.Styles.FullKey = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	helpView.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpView.Styles.FullDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpView.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpView.Styles.FullSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpView.Styles.Ellipsis = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	return State{
		Inputs:        inputs,
		Tab:           defaultTab,
		HelpView:      helpView,
		Keys:          keyboard.New(),
		AutoStart:     opts.AutoStart,
		DebugOn:       opts.Debug,
		FollowPanel:   true,
		PanelView:     viewport.New(defaultPanelWidth, defaultPanelHeight),
		LeftView:      viewport.New(defaultPaneWidth, defaultPaneHeight),
		RightView:     viewport.New(defaultPaneWidth, defaultPaneHeight),
		SettingsView:  viewport.New(defaultPanelWidth, defaultSettingsHeight),
		FilePicker:    picker,
		BrowseInput:   ArchiveInputIndex,
		SavedSettings: draft,
		DraftSettings: draft,
	}
}

func (s State) WithWindowSize(width int, height int) State {
	s.Width = width
	s.Height = height
	return s
}
