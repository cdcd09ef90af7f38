package headless

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"printwatch/internal/actionlog"
	"printwatch/internal/config"
	"printwatch/internal/logging"
	"printwatch/internal/runctx"
	"printwatch/internal/runstatus"
	"printwatch/internal/session"
	headlessview "printwatch/internal/ui/headless/view"
)

const (
	logChannelBufferSize    = 512
	recordChannelBufferSize = 256
	statusChannelBufferSize = 16
	updateTickInterval      = time.Second
	runErrorExitCode        = 1
)

func Run(rootCtx context.Context, buildVersion string, opts config.Options) {
	defer forceDisableMouseTracking()

	saved, loadErr := config.LoadSettings()
	if loadErr == nil {
		opts = config.MergeOptionsWithSettings(opts, saved)
	}

	logger := logging.New(false)
	if logger == nil {
		panic("headless.Run: logging.New returned nil")
	}
	logger.SetDebugEnabled(opts.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	logger.SetTerminalOutputEnabled(false)
	logger.Info("starting printwatch TUI", logging.Field("version", buildVersion))

	m := newHeadlessModel(rootCtx, buildVersion, opts, saved, logger)
	zone.NewGlobal()
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	m.program = program
	result, runErr := program.Run()
	model, _ := result.(*headlessModel)
	if model != nil {
		model.cleanup()
	}
	_ = logger.Close()
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(runErrorExitCode)
	}
}

func forceDisableMouseTracking() {
	_, _ = os.Stdout.WriteString("\x1b[?1000l\x1b[?1002l\x1b[?1003l\x1b[?1006l\x1b[?1015l")
}

func newHeadlessModel(rootCtx context.Context, buildVersion string, opts config.Options, saved config.Settings, logger *logging.Logger) *headlessModel {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	runCtx, runCancel := context.WithCancel(rootCtx)

	m := &headlessModel{
		buildVersion: buildVersion,
		modelDeps: modelDeps{
			runner:     session.NewController(runCtx),
			logger:     logger,
			baseOpts:   opts,
			rootCancel: runCancel,
		},
		modelChannels: modelChannels{
			logCh:    make(chan string, logChannelBufferSize),
			statusCh: make(chan string, statusChannelBufferSize),
			recordCh: make(chan actionlog.Entry, recordChannelBufferSize),
		},
		modelRuntime: modelRuntime{
			status: runstatus.Idle,
			kind:   statusIdle,
		},
		ui: headlessview.NewState(opts, saved, config.DefaultArchiveDir()),
	}

	m.unsubscribe = logger.Subscribe(func(event logging.Event) {
		runctx.OfferLatest(m.logCh, logging.FormatEventANSI(event))
	})
	m.previewConfig()
	m.loadTodaysRecords()
	return m
}

// previewConfig resolves the current options so the rule list is visible
// before watching starts.
func (m *headlessModel) previewConfig() {
	resolved, err := config.Resolve(m.currentOptions())
	if err != nil {
		m.activeRules = nil
		m.ruleHealth = nil
		m.healthDetail = err.Error()
		return
	}
	m.applyResolved(resolved)
	if len(resolved.Rules) == 0 {
		m.healthDetail = "No rules configured; set a rules file in Settings."
	}
}

func (m *headlessModel) applyResolved(resolved config.Resolved) {
	m.activeRules = resolved.Rules
	m.archive = resolved.Archive
	m.recordDir = resolved.RecordDir
	m.healthDetail = ""
	m.lastHealthRefresh = time.Time{}
}

func (m *headlessModel) loadTodaysRecords() {
	if strings.TrimSpace(m.recordDir) == "" {
		return
	}
	lines, err := actionlog.ReadDay(m.recordDir, time.Now())
	if err != nil {
		m.logger.Warn("failed to read today's records", logging.Field("dir", m.recordDir), logging.Field("error", err))
		return
	}
	styled := make([]string, 0, len(lines))
	for _, line := range lines {
		m.countStatus(actionlog.LineStatus(line))
		styled = append(styled, headlessview.StoredRecordLine(line))
	}
	m.ui.RecordText = appendLinesWithLimit("", strings.Join(styled, "\n"), headlessRecordLineLimit)
	m.ui.SetPanelContent()
}

func (m *headlessModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitFor(m.logCh, func(line string) tea.Msg { return logMsg(line) }),
		waitFor(m.statusCh, func(status string) tea.Msg { return statusMsg(status) }),
		waitFor(m.recordCh, func(entry actionlog.Entry) tea.Msg { return recordMsg(entry) }),
		tickCmd(),
		m.refreshHealthCmd(),
	}
	if m.ui.AutoStart {
		cmds = append(cmds, m.startWatchingCmd(true))
	}
	return tea.Batch(cmds...)
}

func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		value, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(value)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(updateTickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
