//go:build !headless

package gui

import (
	"context"
	"image/color"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"printwatch/internal/config"
	"printwatch/internal/logging"
	"printwatch/internal/rules"
	"printwatch/internal/runstatus"
	"printwatch/internal/session"
	"printwatch/internal/ui/health"
)

var (
	statusIdleColor     = color.NRGBA{R: 145, G: 145, B: 145, A: 255}
	statusStartingColor = warningColor
	statusWatchingColor = successColor
	statusStoppingColor = color.NRGBA{R: 232, G: 145, B: 77, A: 255}
	statusErrorColor    = errorColor
	ruleStaleColor      = color.NRGBA{R: 232, G: 145, B: 77, A: 255}
)

const tooltipCursorGap = 10

type controller struct {
	app      fyne.App
	settings config.Settings
	draft    config.Settings
	baseOpts config.Options
	win      fyne.Window
	logger   *logging.Logger
	runner   *session.Controller

	rulesFile *widget.Entry
	archive   *widget.Entry
	recordDir *widget.Entry

	debugLogs      *widget.Check
	startOnLaunch  *sliderToggle
	minimizeToTray *sliderToggle
	startMinimized *sliderToggle
	statusBadge    *statusBadge
	statusText     *widget.Label
	summaryText    *widget.Label
	archiveText    *widget.Label

	startButton    *widget.Button
	stopButton     *widget.Button
	showLogsButton *widget.Button
	saveSettings   *widget.Button
	cancelSettings *widget.Button

	logWindow       fyne.Window
	logWindowOpen   bool
	logGrid         *widget.TextGrid
	logScroll       *container.Scroll
	logSelectable   *widget.Entry
	logSelectScroll *container.Scroll
	selectableLogs  *widget.Check
	followButton    *widget.Button
	followEnabled   bool
	followJumping   bool
	logRawLines     []string
	logRows         []widget.TextGridRow
	logCols         int
	hoverTipLayer   *fyne.Container
	hoverTipShadow  *canvas.Rectangle
	hoverTipCard    *fyne.Container
	hoverTipLabel   *widget.Label
	hoverTipBG      *canvas.Rectangle

	activeRules     []rules.Rule
	activeArchive   string
	activeRecordDir string
	previewDetail   string
	ruleRows        []health.Row
	ruleDetail      string
	ruleList        *container.Scroll
	ruleRowsBox     *fyne.Container
	ruleEmpty       *fyne.Container
	ruleNotice      *widget.Label

	records     []recordRow
	recordList  *widget.List
	recordItems map[fyne.CanvasObject]*statusBadgeLabel
	recordEmpty *fyne.Container
	printed     int
	partial     int
	failed      int

	dirPickerWindow  fyne.Window
	dirPickerPath    *widget.Entry
	dirPickerTarget  *widget.Entry
	dirPickerCurrent string
	dirPickerItems   []string
	dirPickerList    *widget.List

	stopping       bool
	cleanupOnce    sync.Once
	quitOnce       sync.Once
	bgWG           sync.WaitGroup
	unsubscribe    func()
	appCtx         context.Context
	appCancel      context.CancelFunc
	shuttingDown   bool
	confirmingQuit bool
}

func Run(rootCtx context.Context, buildVersion string, defaults config.Options) {
	uiApp := app.NewWithID("printwatch")
	uiApp.Settings().SetTheme(newPrintwatchTheme())
	c := newController(rootCtx, uiApp, defaults)
	c.logger.Info("starting printwatch UI", logging.Field("version", buildVersion))
	c.run()
	_ = c.logger.Close()
}

func newController(rootCtx context.Context, uiApp fyne.App, defaults config.Options) *controller {
	saved, loadErr := config.LoadSettings()
	if loadErr == nil {
		defaults = config.MergeOptionsWithSettings(defaults, saved)
	}
	settings := config.SettingsFromOptions(defaults, saved)

	logger := logging.New(false)
	if logger == nil {
		panic("gui.newController: logging.New returned nil")
	}
	logger.SetDebugEnabled(settings.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	appCtx, appCancel := context.WithCancel(rootCtx)

	c := &controller{
		app:         uiApp,
		settings:    settings,
		draft:       settings,
		baseOpts:    defaults,
		logger:      logger,
		runner:      session.NewController(appCtx),
		recordItems: map[fyne.CanvasObject]*statusBadgeLabel{},
		appCtx:      appCtx,
		appCancel:   appCancel,
	}

	uiApp.SetIcon(AppIconResource())
	c.win = uiApp.NewWindow("printwatch")
	c.win.SetMaster()
	c.win.Resize(fyne.NewSize(620, 520))
	c.buildUI()
	c.bindLogs()
	c.setupTray()
	c.app.Lifecycle().SetOnStopped(func() {
		c.logger.Debug("app lifecycle OnStopped hook triggered")
		c.cleanup()
	})
	return c
}

func (c *controller) run() {
	c.setRunningState(false)
	c.startRuleHealthLoop()
	go func() {
		<-c.appCtx.Done()
		fyne.Do(func() {
			if c.shuttingDown {
				return
			}
			c.logger.Info("root context canceled; shutting down printwatch UI")
			c.quitApp()
		})
	}()
	c.win.SetOnClosed(func() {
		c.logger.Debug("main window OnClosed hook triggered")
		if c.shuttingDown {
			return
		}
		c.cleanup()
	})
	c.win.SetCloseIntercept(func() {
		if c.shouldMinimizeToTrayOnClose() {
			c.logger.Debug("main window close intercepted: hiding to tray")
			c.win.Hide()
			return
		}
		c.requestQuit()
	})

	if c.settings.StartMinimized {
		c.win.Show()
		c.win.Hide()
	} else {
		c.win.Show()
	}
	c.tryAutoStart()
	c.app.Run()
}

func (c *controller) buildUI() {
	c.rulesFile = widget.NewEntry()
	c.rulesFile.SetPlaceHolder(config.DefaultRulesFile())
	c.rulesFile.SetText(c.draft.RulesFile)

	c.archive = widget.NewEntry()
	c.archive.SetPlaceHolder(config.DefaultArchiveDir())
	c.archive.SetText(c.draft.Archive)

	c.recordDir = widget.NewEntry()
	c.recordDir.SetPlaceHolder("working directory")
	c.recordDir.SetText(c.draft.RecordDir)

	c.debugLogs = widget.NewCheck("Debug level", func(v bool) {
		c.draft.Debug = v
		c.logger.SetDebugEnabled(v)
		c.refreshSettingsActions()
	})
	c.debugLogs.SetChecked(c.draft.Debug)

	c.startOnLaunch = newSliderToggle(func(v bool) {
		c.draft.AutoStart = v
		c.refreshSettingsActions()
	})
	c.startOnLaunch.SetChecked(c.draft.AutoStart)

	c.minimizeToTray = newSliderToggle(func(v bool) {
		c.draft.MinimizeToTray = v
		c.refreshSettingsActions()
	})
	c.minimizeToTray.SetChecked(c.draft.MinimizeToTray)

	c.startMinimized = newSliderToggle(func(v bool) {
		c.draft.StartMinimized = v
		c.refreshSettingsActions()
	})
	c.startMinimized.SetChecked(c.draft.StartMinimized)

	c.statusBadge = newStatusBadge(c.tooltipHandlers())
	c.statusText = widget.NewLabel(runstatus.Idle)
	c.summaryText = widget.NewLabel("")
	c.archiveText = widget.NewLabel("")
	c.archiveText.Truncation = fyne.TextTruncateEllipsis

	c.initLogWindow()
	c.setStatus(runstatus.Idle, statusIdleColor)

	c.startButton = widget.NewButton("Start", func() {
		c.startWatching(false)
		c.refreshTrayMenu()
	})
	c.stopButton = widget.NewButton("Stop", func() {
		c.stopWatching()
		c.refreshTrayMenu()
	})
	c.showLogsButton = widget.NewButton("Show logs", func() {
		c.setLogVisibility(true)
		c.refreshTrayMenu()
	})
	c.stopButton.Disable()
	controlsGap := canvas.NewRectangle(color.Transparent)
	controlsGap.SetMinSize(fyne.NewSize(12, 1))

	c.rulesFile.OnChanged = func(v string) {
		c.draft.RulesFile = strings.TrimSpace(v)
		c.refreshSettingsActions()
	}
	c.archive.OnChanged = func(v string) {
		c.draft.Archive = strings.TrimSpace(v)
		c.refreshSettingsActions()
	}
	c.recordDir.OnChanged = func(v string) {
		c.draft.RecordDir = strings.TrimSpace(v)
		c.refreshSettingsActions()
	}

	browseRules := widget.NewButton("Browse...", c.selectRulesFile)
	browseArchive := widget.NewButton("Browse...", func() {
		c.selectDir("Select Archive Folder", c.archive)
	})
	browseRecords := widget.NewButton("Browse...", func() {
		c.selectDir("Select Record Folder", c.recordDir)
	})

	form := container.NewVBox(
		widget.NewLabel("Rules File"),
		container.NewBorder(nil, nil, nil, browseRules, c.rulesFile),
		c.verticalGap(8),
		widget.NewLabel("Archive Directory"),
		container.NewBorder(nil, nil, nil, browseArchive, c.archive),
		c.verticalGap(8),
		widget.NewLabel("Record Directory"),
		container.NewBorder(nil, nil, nil, browseRecords, c.recordDir),
	)

	settingsRow := container.NewVBox(
		c.toggleRow("Start watching on launch", c.startOnLaunch),
		c.toggleRow("Close to tray", c.minimizeToTray),
		c.toggleRow("Start minimized", c.startMinimized),
	)
	c.saveSettings = widget.NewButton("Save", c.saveDraftSettings)
	c.cancelSettings = widget.NewButton("Cancel", c.cancelDraftSettings)
	settingsActions := container.NewHBox(c.saveSettings, c.cancelSettings)
	statusRow := container.NewHBox(c.statusBadge, c.statusText)
	controls := container.NewHBox(c.startButton, c.stopButton, controlsGap, c.showLogsButton, widget.NewLabel("Status:"), statusRow)

	overviewTop := container.NewPadded(container.NewVBox(
		controls,
		c.summaryText,
		c.archiveText,
	))

	pad := func(obj fyne.CanvasObject) fyne.CanvasObject {
		return container.NewPadded(container.NewPadded(obj))
	}
	panels := container.NewVSplit(c.buildRulePanel(), c.buildRecordPanel())
	panels.SetOffset(0.4)

	overviewTab := container.NewTabItem("Overview", pad(container.NewBorder(
		overviewTop,
		nil,
		nil,
		nil,
		panels,
	)))
	settingsTab := container.NewTabItem("Settings", pad(container.NewVBox(
		form,
		c.verticalGap(12),
		settingsRow,
		c.verticalGap(8),
		settingsActions,
	)))
	tabs := container.NewAppTabs(overviewTab, settingsTab)
	tabs.SetTabLocation(container.TabLocationTop)
	minAnchor := canvas.NewRectangle(color.Transparent)
	minAnchor.SetMinSize(fyne.NewSize(560, 440))
	c.hoverTipLabel = widget.NewLabel("")
	c.hoverTipLabel.Wrapping = fyne.TextWrapOff
	c.hoverTipBG = canvas.NewRectangle(color.NRGBA{R: 44, G: 44, B: 44, A: 250})
	c.hoverTipShadow = canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: 120})
	c.hoverTipShadow.Hide()
	c.hoverTipCard = container.NewMax(c.hoverTipBG, container.NewPadded(c.hoverTipLabel))
	c.hoverTipCard.Hide()
	c.hoverTipLayer = container.NewWithoutLayout(c.hoverTipShadow, c.hoverTipCard)
	c.win.SetContent(container.NewStack(minAnchor, tabs, c.hoverTipLayer))

	c.previewConfig()
	c.loadTodaysRecords()
	c.refreshRuleHealth()
	c.refreshSettingsActions()
}

func (c *controller) emptyNotice(label *widget.Label) *fyne.Container {
	label.Alignment = fyne.TextAlignCenter
	return container.NewVBox(
		layout.NewSpacer(),
		container.NewCenter(label),
		layout.NewSpacer(),
	)
}

func (c *controller) persistSettings() {
	if err := config.SaveSettings(c.settings); err != nil {
		c.logger.Warn("failed to save settings", logging.Field("error", err))
	}
}

func (c *controller) settingsDirty() bool {
	return c.draft != c.settings
}

func (c *controller) refreshSettingsActions() {
	dirty := c.settingsDirty()
	for _, button := range []*widget.Button{c.saveSettings, c.cancelSettings} {
		if button == nil {
			continue
		}
		if dirty {
			button.Enable()
		} else {
			button.Disable()
		}
	}
}

func (c *controller) saveDraftSettings() {
	c.settings = c.draft
	c.persistSettings()
	if !c.runner.IsRunning() {
		c.previewConfig()
		c.loadTodaysRecords()
		c.refreshRuleHealth()
	}
	c.refreshTrayMenu()
	c.refreshSettingsActions()
}

func (c *controller) cancelDraftSettings() {
	c.draft = c.settings
	c.rulesFile.SetText(c.draft.RulesFile)
	c.archive.SetText(c.draft.Archive)
	c.recordDir.SetText(c.draft.RecordDir)
	c.debugLogs.SetChecked(c.draft.Debug)
	c.startOnLaunch.SetChecked(c.draft.AutoStart)
	c.minimizeToTray.SetChecked(c.draft.MinimizeToTray)
	c.startMinimized.SetChecked(c.draft.StartMinimized)
	c.logger.SetDebugEnabled(c.draft.Debug)
	c.refreshSettingsActions()
}

func (c *controller) toggleRow(label string, sw *sliderToggle) fyne.CanvasObject {
	return container.NewBorder(nil, nil, widget.NewLabel(label), sw, nil)
}

func (c *controller) verticalGap(height float32) fyne.CanvasObject {
	spacer := canvas.NewRectangle(color.Transparent)
	spacer.SetMinSize(fyne.NewSize(1, height))
	return spacer
}

func (c *controller) setStatus(text string, dotColor color.NRGBA) {
	c.statusText.SetText(text)
	if c.statusBadge != nil {
		c.statusBadge.SetStatus(dotColor, "")
	}
}

func (c *controller) applyRuntimeStatus(status string) {
	switch runstatus.Key(status) {
	case runstatus.KeyStarting:
		c.setStatus(runstatus.Starting, statusStartingColor)
	case runstatus.KeyWatching:
		c.setStatus(runstatus.Watching, statusWatchingColor)
	case runstatus.KeyStopping:
		c.setStatus(runstatus.Stopping, statusStoppingColor)
	case runstatus.KeyStopped:
		c.setStatus(runstatus.Stopped, statusIdleColor)
	case runstatus.KeyError:
		c.setStatus(runstatus.Error, statusErrorColor)
	default:
		c.setStatus(status, statusIdleColor)
	}
}

func (c *controller) tooltipHandlers() statusBadgeHandlers {
	return statusBadgeHandlers{
		Show: c.showHoverTooltip,
		Move: c.moveHoverTooltip,
		Hide: c.hideHoverTooltip,
	}
}

func (c *controller) showHoverTooltip(text string, anchor fyne.Position) {
	if c.hoverTipCard == nil || c.hoverTipLabel == nil {
		return
	}
	c.hoverTipLabel.SetText(text)
	size := c.hoverTipCard.MinSize()
	c.hoverTipCard.Resize(size)
	c.placeHoverTooltip(anchor, size)
	if c.hoverTipShadow != nil {
		c.hoverTipShadow.Show()
	}
	c.hoverTipCard.Show()
	c.hoverTipLayer.Refresh()
}

func (c *controller) moveHoverTooltip(anchor fyne.Position) {
	if c.hoverTipCard == nil || !c.hoverTipCard.Visible() {
		return
	}
	size := c.hoverTipCard.Size()
	if size.Width <= 0 || size.Height <= 0 {
		size = c.hoverTipCard.MinSize()
		c.hoverTipCard.Resize(size)
	}
	c.placeHoverTooltip(anchor, size)
	c.hoverTipLayer.Refresh()
}

func (c *controller) placeHoverTooltip(anchor fyne.Position, size fyne.Size) {
	pos := c.hoverTooltipPosition(anchor, size)
	c.hoverTipCard.Move(pos)
	if c.hoverTipShadow != nil {
		c.hoverTipShadow.Resize(size)
		c.hoverTipShadow.Move(fyne.NewPos(pos.X+2, pos.Y+2))
	}
}

func (c *controller) hideHoverTooltip() {
	if c.hoverTipCard == nil {
		return
	}
	if c.hoverTipShadow != nil {
		c.hoverTipShadow.Hide()
	}
	c.hoverTipCard.Hide()
	c.hoverTipLayer.Refresh()
}

func (c *controller) hoverTooltipPosition(anchor fyne.Position, size fyne.Size) fyne.Position {
	const pad = float32(4)
	canvasSize := c.win.Canvas().Size()
	maxX := max(pad, canvasSize.Width-size.Width-pad)
	maxY := max(pad, canvasSize.Height-size.Height-pad)
	x := min(max(pad, anchor.X+tooltipCursorGap), maxX)
	y := min(max(pad, anchor.Y+tooltipCursorGap), maxY)
	return fyne.NewPos(x, y)
}

func (c *controller) tryAutoStart() {
	if !c.settings.AutoStart || c.runner.IsRunning() {
		return
	}
	fyne.Do(func() {
		c.startWatching(true)
		c.refreshTrayMenu()
	})
}

func (c *controller) shouldMinimizeToTrayOnClose() bool {
	if c.minimizeToTray != nil {
		return c.minimizeToTray.Checked
	}
	return c.settings.MinimizeToTray
}
