package headless

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"printwatch/internal/actionlog"
	"printwatch/internal/config"
	"printwatch/internal/logging"
	"printwatch/internal/runstatus"
	headlessview "printwatch/internal/ui/headless/view"
	"printwatch/internal/ui/health"
)

var rulesFileTypes = []string{".yaml", ".yml", ".toml", ".json"}

func (m *headlessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		switch msg := msg.(type) {
		case quitNowMsg:
			m.cleanup()
			return m, tea.Quit
		case runDoneMsg:
			m.applyRunDone(msg)
		}
		return m, nil
	}

	if m.ui.FilePickerOpen {
		if ws, ok := msg.(tea.WindowSizeMsg); ok {
			m.resize(ws)
			m.ui.ResizeFilePicker()
		}
		return m.updateFilePickerMsg(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil
	case logMsg:
		m.ui.LogText = appendLinesWithLimit(m.ui.LogText, string(msg), headlessLogLineLimit)
		if m.ui.ShowLogs {
			m.ui.SetPanelContent()
		}
		return m, waitFor(m.logCh, func(line string) tea.Msg { return logMsg(line) })
	case recordMsg:
		m.applyRecord(actionlog.Entry(msg))
		return m, waitFor(m.recordCh, func(entry actionlog.Entry) tea.Msg { return recordMsg(entry) })
	case statusMsg:
		m.applyRuntimeStatus(string(msg))
		return m, waitFor(m.statusCh, func(status string) tea.Msg { return statusMsg(status) })
	case healthMsg:
		m.healthBusy = false
		m.ruleHealth = msg.rows
		m.healthDetail = msg.detail
		m.lastHealthRefresh = msg.at
		return m, nil
	case startResultMsg:
		m.starting = false
		if msg.err != nil {
			m.status = runstatus.Error
			m.kind = statusError
			m.ui.ErrorModalText = setupFailureText(msg.err)
			return m, nil
		}
		m.running = true
		m.status = runstatus.Watching
		m.kind = statusWatching
		return m, m.refreshHealthCmd()
	case stopDoneMsg:
		m.stopping = false
		m.running = false
		return m, nil
	case runDoneMsg:
		m.applyRunDone(msg)
		return m, nil
	case tickMsg:
		if time.Since(m.lastHealthRefresh) >= health.RefreshRate {
			return m, tea.Batch(tickCmd(), m.refreshHealthCmd())
		}
		return m, tickCmd()
	case tea.MouseMsg:
		return m.updateMouseMsg(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	next, cmd, ok := headlessview.ReduceInput(m.ui, msg)
	if ok {
		m.ui = next
		return m, cmd
	}
	return m, nil
}

func (m *headlessModel) resize(ws tea.WindowSizeMsg) {
	m.ui = m.ui.WithWindowSize(ws.Width, ws.Height)
	m.ui.ResizePanel(nonPanelLayoutReserveMin, minPanelHeight)
	headlessview.ResizePaneViewports(&m.ui, m.runtimeView())
}

func (m *headlessModel) applyRunDone(msg runDoneMsg) {
	m.running = false
	m.starting = false
	m.stopping = false
	if msg.err != nil {
		m.status = runstatus.Error
		m.kind = statusError
		if !m.quitting {
			m.ui.ErrorModalText = msg.err.Error()
		}
		return
	}
	m.status = runstatus.Stopped
	m.kind = statusIdle
}

func (m *headlessModel) updateMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	next, cmd, effect := headlessview.ReduceMouse(m.ui, msg)
	m.ui = next
	switch effect {
	case headlessview.MouseEffectActivateFocused:
		return m, tea.Batch(cmd, m.activateFocusedControl())
	case headlessview.MouseEffectConfirmQuitAccept:
		return m, tea.Batch(cmd, m.beginQuitCmd())
	}
	return m, cmd
}

func (m *headlessModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next, effect := headlessview.ReduceKey(m.ui, msg)
	m.ui = next
	switch effect {
	case headlessview.KeyEffectRequestQuit:
		return m, m.requestQuitCmd()
	case headlessview.KeyEffectSaveSettings:
		return m, m.saveSettingsDraft()
	case headlessview.KeyEffectActivateFocused:
		return m, m.activateFocusedControl()
	case headlessview.KeyEffectConfirmQuitAccept:
		return m, m.beginQuitCmd()
	case headlessview.KeyEffectToggleWatching:
		return m, m.toggleWatchingCmd()
	default:
		if m.ui.ErrorModalText != "" || m.ui.ConfirmQuit {
			return m, nil
		}
		nextState, cmd, ok := headlessview.ReduceInput(m.ui, msg)
		if ok {
			m.ui = nextState
			return m, cmd
		}
		return m, nil
	}
}

func (m *headlessModel) activateFocusedControl() tea.Cmd {
	next, effect := headlessview.ReduceActivate(m.ui, m.running, m.busy())
	m.ui = next
	switch effect {
	case headlessview.ActivateEffectStartWatching:
		return m.startWatchingCmd(false)
	case headlessview.ActivateEffectStopWatching:
		return m.stopWatchingCmd()
	case headlessview.ActivateEffectRequestQuit:
		return m.requestQuitCmd()
	case headlessview.ActivateEffectDebugLevelChanged:
		m.logger.SetDebugEnabled(m.ui.DebugOn)
		return nil
	case headlessview.ActivateEffectOpenBrowse:
		return m.openBrowseCmd()
	case headlessview.ActivateEffectSaveSettings:
		return m.saveSettingsDraft()
	default:
		return nil
	}
}

func (m *headlessModel) openBrowseCmd() tea.Cmd {
	picking := m.ui.PickingFile()
	current := strings.TrimSpace(m.ui.Inputs[m.ui.BrowseInput].Value())
	startDir := current
	switch {
	case picking && current != "":
		startDir = filepath.Dir(current)
	case m.ui.BrowseInput == headlessview.ArchiveInputIndex && current == "":
		startDir = config.DefaultArchiveDir()
	}
	if startDir == "" {
		startDir = "."
	}
	if abs, err := filepath.Abs(startDir); err == nil {
		startDir = abs
	}
	if info, err := os.Stat(startDir); err != nil || !info.IsDir() {
		startDir = "."
		if abs, err := filepath.Abs(startDir); err == nil {
			startDir = abs
		}
	}

	m.ui.FilePicker.CurrentDirectory = startDir
	m.ui.FilePicker.Path = ""
	m.ui.FilePicker.FileAllowed = picking
	m.ui.FilePicker.DirAllowed = !picking
	m.ui.FilePicker.AllowedTypes = nil
	if picking {
		m.ui.FilePicker.AllowedTypes = rulesFileTypes
	}
	m.ui.FilePickerOpen = true
	m.ui.ResizeFilePicker()
	return m.ui.FilePicker.Init()
}

func (m *headlessModel) requestQuitCmd() tea.Cmd {
	if m.running || m.busy() {
		m.ui.ConfirmQuit = true
		m.ui.ConfirmQuitChoice = headlessview.ConfirmQuitChoiceCancel
		return nil
	}
	return m.beginQuitCmd()
}

// beginQuitCmd stops the session off the event loop so its exit hook can
// still be delivered, then quits.
func (m *headlessModel) beginQuitCmd() tea.Cmd {
	m.quitting = true
	m.ui.ConfirmQuit = false
	runner := m.runner
	return tea.Sequence(
		func() tea.Msg { return tea.DisableMouse() },
		func() tea.Msg {
			runner.StopAndWait(quitStopGrace)
			return nil
		},
		waitForMouseDrainCmd(),
		func() tea.Msg { return quitNowMsg{} },
	)
}

func waitForMouseDrainCmd() tea.Cmd {
	return func() tea.Msg {
		time.Sleep(120 * time.Millisecond)
		return nil
	}
}

func appendLinesWithLimit(current string, next string, limit int) string {
	if limit <= 0 {
		return ""
	}
	lines := splitLines(current)
	lines = append(lines, splitLines(next)...)
	if len(lines) > limit {
		lines = append([]string(nil), lines[len(lines)-limit:]...)
	}
	return strings.Join(lines, "\n")
}

func splitLines(input string) []string {
	if input == "" {
		return nil
	}
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (m *headlessModel) updateFilePickerMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c":
			m.ui.FilePickerOpen = false
			return m, m.requestQuitCmd()
		case "esc":
			m.ui.FilePickerOpen = false
			return m, nil
		case "left", "backspace":
			parent := filepath.Dir(m.ui.FilePicker.CurrentDirectory)
			if parent == "" || parent == m.ui.FilePicker.CurrentDirectory {
				return m, nil
			}
			m.ui.FilePicker.CurrentDirectory = parent
			return m, m.ui.FilePicker.Init()
		case "enter":
			if !m.ui.PickingFile() {
				return m.selectCurrentFilePickerDir()
			}
		}
	}
	var cmd tea.Cmd
	m.ui.FilePicker, cmd = m.ui.FilePicker.Update(msg)
	if ok, path := m.ui.FilePicker.DidSelectFile(msg); ok {
		if !m.ui.PickingFile() {
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				path = filepath.Dir(path)
			}
		}
		m.applySelectedPath(path)
		return m, nil
	}
	return m, cmd
}

func (m *headlessModel) selectCurrentFilePickerDir() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.ui.FilePicker.CurrentDirectory)
	if path == "" {
		path = "."
	}
	m.applySelectedPath(path)
	return m, nil
}

func (m *headlessModel) applySelectedPath(path string) {
	m.ui = m.ui.WithSelectedPath(path)
	if !m.running && !m.busy() {
		m.previewConfig()
	}
}

// saveSettingsDraft persists the draft. Changes reach a running session the
// next time watching starts.
func (m *headlessModel) saveSettingsDraft() tea.Cmd {
	if !m.ui.SettingsDirty {
		return nil
	}

	m.ui = m.ui.WithDraftFromControls()
	next := m.ui.WithSaveCommitted()

	previous, err := config.LoadSettings()
	if err != nil {
		previous = m.ui.SavedSettings
	}
	settings := config.SettingsFromOptions(m.currentOptions(), previous)
	if err := config.SaveSettings(settings); err != nil {
		m.ui.ErrorModalText = err.Error()
		m.logger.Warn("failed to save settings", logging.Field("error", err))
		return nil
	}

	m.ui = next
	if !m.running && !m.busy() {
		m.previewConfig()
		return m.refreshHealthCmd()
	}
	return nil
}
