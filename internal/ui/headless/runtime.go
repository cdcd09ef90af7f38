package headless

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"printwatch/internal/actionlog"
	"printwatch/internal/config"
	"printwatch/internal/logging"
	"printwatch/internal/runctx"
	"printwatch/internal/runstatus"
	"printwatch/internal/session"
	headlessview "printwatch/internal/ui/headless/view"
	"printwatch/internal/ui/health"
)

// quitStopGrace bounds how long quitting waits for the file being printed.
const quitStopGrace = 10 * time.Second

// currentOptions overlays the editable settings onto the command-line
// options the UI was launched with.
func (m *headlessModel) currentOptions() config.Options {
	opts := m.baseOpts
	opts.RulesFile = strings.TrimSpace(m.ui.Inputs[headlessview.RulesFileInputIndex].Value())
	opts.Archive = strings.TrimSpace(m.ui.Inputs[headlessview.ArchiveInputIndex].Value())
	opts.RecordDir = strings.TrimSpace(m.ui.Inputs[headlessview.RecordDirInputIndex].Value())
	opts.AutoStart = m.ui.AutoStart
	opts.Debug = m.ui.DebugOn
	return opts
}

func (m *headlessModel) busy() bool {
	return m.starting || m.stopping
}

func (m *headlessModel) startWatchingCmd(auto bool) tea.Cmd {
	if m.running || m.busy() {
		return nil
	}
	resolved, err := config.Resolve(m.currentOptions())
	if err != nil {
		m.ui.ErrorModalText = m.startErrorText(auto, err.Error())
		return nil
	}
	cfg, err := resolved.SessionConfig(m.logger)
	if err != nil {
		m.ui.ErrorModalText = m.startErrorText(auto, err.Error())
		return nil
	}

	m.applyResolved(resolved)
	m.starting = true
	m.status = runstatus.Starting
	m.kind = statusStarting
	m.ui.ErrorModalText = ""

	return func() tea.Msg {
		err := m.runner.Start(cfg, m.logger, session.StartHooks{
			OnStatus: m.onRuntimeStatus,
			OnRecord: m.onRuntimeRecord,
			OnExit:   m.onRuntimeExit,
		})
		return startResultMsg{err: err, resolved: resolved}
	}
}

func (m *headlessModel) stopWatchingCmd() tea.Cmd {
	if !m.running || m.busy() {
		return nil
	}
	m.stopping = true
	m.status = runstatus.Stopping
	m.kind = statusStopping
	runner := m.runner
	return func() tea.Msg {
		runner.Stop()
		return stopDoneMsg{}
	}
}

func (m *headlessModel) toggleWatchingCmd() tea.Cmd {
	switch headlessview.ToggleEffect(m.running, m.busy()) {
	case headlessview.ActivateEffectStartWatching:
		return m.startWatchingCmd(false)
	case headlessview.ActivateEffectStopWatching:
		return m.stopWatchingCmd()
	default:
		return nil
	}
}

func (m *headlessModel) onRuntimeStatus(status string) {
	runctx.OfferLatest(m.statusCh, status)
}

func (m *headlessModel) onRuntimeRecord(entry actionlog.Entry) {
	runctx.OfferLatest(m.recordCh, entry)
}

func (m *headlessModel) onRuntimeExit(runErr error) {
	if m.program == nil {
		return
	}
	m.program.Send(runDoneMsg{err: runErr})
}

func (m *headlessModel) applyRuntimeStatus(status string) {
	switch runstatus.Key(status) {
	case runstatus.KeyStarting:
		m.status = runstatus.Starting
		m.kind = statusStarting
	case runstatus.KeyWatching:
		m.status = runstatus.Watching
		m.kind = statusWatching
		m.running = true
		m.starting = false
	case runstatus.KeyStopping:
		m.status = runstatus.Stopping
		m.kind = statusStopping
	case runstatus.KeyStopped:
		m.status = runstatus.Stopped
		m.kind = statusIdle
	case runstatus.KeyError:
		m.status = runstatus.Error
		m.kind = statusError
	default:
		m.status = status
	}
}

func (m *headlessModel) applyRecord(entry actionlog.Entry) {
	m.countStatus(entry.Status())
	m.ui.RecordText = appendLinesWithLimit(m.ui.RecordText, headlessview.RecordLine(entry), headlessRecordLineLimit)
	if !m.ui.ShowLogs {
		m.ui.SetPanelContent()
	}
	if entry.Err != nil {
		m.logger.Warn("record line was not persisted", logging.Field("record_id", entry.ID), logging.Field("error", entry.Err))
	}
}

func (m *headlessModel) countStatus(status actionlog.Status) {
	switch status {
	case actionlog.StatusPrinted:
		m.printed++
	case actionlog.StatusFailed:
		m.failed++
	default:
		m.partial++
	}
}

func (m *headlessModel) startErrorText(auto bool, message string) string {
	if !auto {
		return message
	}
	return "Couldn't start watching automatically: " + message
}

func (m *headlessModel) refreshHealthCmd() tea.Cmd {
	if m.healthBusy {
		return nil
	}
	m.healthBusy = true
	list := append(m.activeRules[:0:0], m.activeRules...)
	archive := m.archive
	detail := m.healthDetail
	return func() tea.Msg {
		now := time.Now()
		rows, msg := health.Compute(list, archive, now)
		if len(list) == 0 && detail != "" {
			msg = detail
		}
		return healthMsg{rows: rows, detail: msg, at: now}
	}
}

func setupFailureText(err error) string {
	var setupErr *session.SetupError
	if errors.As(err, &setupErr) {
		return "Couldn't start watching (" + setupErr.Op + "): " + setupErr.Err.Error()
	}
	return err.Error()
}

func (m *headlessModel) cleanup() {
	m.cleanupOnce.Do(func() {
		m.logger.Debug("headless cleanup started")

		if m.unsubscribe != nil {
			m.logger.Debug("unsubscribing headless log listener")
			m.unsubscribe()
		}

		m.logger.Debug("stopping session controller")
		m.runner.StopAndWait(quitStopGrace)

		if m.rootCancel != nil {
			m.rootCancel()
		}
		m.logger.Debug("headless cleanup complete")
	})
}
