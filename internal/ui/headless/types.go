package headless

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"printwatch/internal/actionlog"
	"printwatch/internal/config"
	"printwatch/internal/logging"
	"printwatch/internal/rules"
	"printwatch/internal/session"
	headlessview "printwatch/internal/ui/headless/view"
	"printwatch/internal/ui/health"
)

const (
	headlessLogLineLimit    = 5_000
	headlessRecordLineLimit = 2_000
)

const (
	minPanelHeight           = 8
	nonPanelLayoutReserveMin = 24
)

type logMsg string
type statusMsg string
type recordMsg actionlog.Entry
type tickMsg struct{}

type healthMsg struct {
	rows   []health.Row
	detail string
	at     time.Time
}

type runDoneMsg struct {
	err error
}

type startResultMsg struct {
	err      error
	resolved config.Resolved
}

type stopDoneMsg struct{}
type quitNowMsg struct{}

type statusKind int

const (
	statusIdle statusKind = iota
	statusStarting
	statusWatching
	statusStopping
	statusError
)

type modelDeps struct {
	runner      *session.Controller
	logger      *logging.Logger
	baseOpts    config.Options
	unsubscribe func()
	rootCancel  context.CancelFunc
	program     *tea.Program
}

type modelChannels struct {
	logCh    chan string
	statusCh chan string
	recordCh chan actionlog.Entry
}

type modelRuntime struct {
	running  bool
	starting bool
	stopping bool
	quitting bool
	status   string
	kind     statusKind

	activeRules       []rules.Rule
	archive           string
	recordDir         string
	ruleHealth        []health.Row
	healthDetail      string
	healthBusy        bool
	lastHealthRefresh time.Time

	printed int
	partial int
	failed  int
}

type headlessModel struct {
	buildVersion string
	modelDeps
	modelChannels
	modelRuntime
	cleanupOnce sync.Once
	ui          headlessview.State
}
