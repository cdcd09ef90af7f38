//go:build !headless

package gui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"printwatch/internal/actionlog"
	"printwatch/internal/config"
	"printwatch/internal/logging"
	"printwatch/internal/runctx"
	"printwatch/internal/runstatus"
	"printwatch/internal/session"
)

const (
	logChannelBufferSize = 256
	quitStopGrace        = 10 * time.Second
	backgroundStopWait   = 2 * time.Second
)

func waitGroupWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (c *controller) startBackgroundLoop(name string, fn func(context.Context)) {
	c.bgWG.Go(func() {
		c.logger.Debug("background loop started", logging.Field("loop", name))
		fn(c.appCtx)
		c.logger.Debug("background loop stopped", logging.Field("loop", name))
	})
}

func (c *controller) bindLogs() {
	logCh := make(chan string, logChannelBufferSize)
	c.unsubscribe = c.logger.Subscribe(func(event logging.Event) {
		runctx.OfferLatest(logCh, logging.FormatEventANSI(event))
	})

	c.startBackgroundLoop("gui log pump", func(ctx context.Context) {
		for {
			line, ok := runctx.RecvOrDone(ctx, "GUI log pump", c.logger, logCh)
			if !ok {
				return
			}
			fyne.Do(func() {
				c.appendLog(line)
			})
		}
	})
}

// currentOptions overlays the settings fields onto the command-line options
// the window was launched with.
func (c *controller) currentOptions() config.Options {
	opts := c.baseOpts
	opts.RulesFile = strings.TrimSpace(c.rulesFile.Text)
	opts.Archive = strings.TrimSpace(c.archive.Text)
	opts.RecordDir = strings.TrimSpace(c.recordDir.Text)
	opts.AutoStart = c.startOnLaunch.Checked
	opts.Debug = c.debugLogs.Checked
	return opts
}

func (c *controller) startWatching(auto bool) {
	if c.runner.IsRunning() || c.stopping {
		return
	}
	resolved, err := config.Resolve(c.currentOptions())
	if err != nil {
		c.failStart(auto, err)
		return
	}
	cfg, err := resolved.SessionConfig(c.logger)
	if err != nil {
		c.failStart(auto, err)
		return
	}

	recordDirChanged := resolved.RecordDir != c.activeRecordDir
	c.applyResolved(resolved)
	if recordDirChanged {
		c.loadTodaysRecords()
	}

	err = c.runner.Start(cfg, c.logger, session.StartHooks{
		OnStatus: func(status string) {
			fyne.Do(func() {
				c.applyRuntimeStatus(status)
			})
		},
		OnRecord: func(entry actionlog.Entry) {
			fyne.Do(func() {
				c.appendRecord(entry)
			})
		},
		OnExit: func(runErr error) {
			fyne.Do(func() {
				c.stopping = false
				c.setRunningState(false)
				if !c.shuttingDown {
					c.refreshTrayMenu()
				}
				if runErr != nil {
					c.setStatus(runstatus.Error, statusErrorColor)
					dialog.ShowError(runErr, c.win)
					return
				}
				c.setStatus(runstatus.Stopped, statusIdleColor)
			})
		},
	})
	if err != nil {
		c.failStart(auto, err)
		return
	}
	c.setRunningState(true)
	c.refreshRuleHealth()
}

func (c *controller) failStart(auto bool, err error) {
	c.setStatus(runstatus.Error, statusErrorColor)
	c.logger.Warn("failed to start watching", logging.Field("error", err))
	dialog.ShowError(errors.New(startErrorText(auto, setupFailureText(err))), c.win)
}

func startErrorText(auto bool, message string) string {
	if !auto {
		return message
	}
	return "Couldn't start watching automatically: " + message
}

func setupFailureText(err error) string {
	var setupErr *session.SetupError
	if errors.As(err, &setupErr) {
		return "Couldn't start watching (" + setupErr.Op + "): " + setupErr.Err.Error()
	}
	return err.Error()
}

// stopWatching waits for the file in flight off the UI thread; OnExit
// restores the controls.
func (c *controller) stopWatching() {
	if !c.runner.IsRunning() || c.stopping {
		return
	}
	c.stopping = true
	c.setStatus(runstatus.Stopping, statusStoppingColor)
	c.stopButton.Disable()
	go c.runner.Stop()
}

func (c *controller) setRunningState(running bool) {
	if running {
		c.startButton.Disable()
		c.stopButton.Enable()
		return
	}
	c.stopButton.Disable()
	c.startButton.Enable()
}

func (c *controller) cleanup() {
	c.cleanupOnce.Do(func() {
		c.shuttingDown = true
		c.logger.Debug("gui cleanup started")
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.logger.Debug("stopping session controller")
		if ok := c.runner.StopAndWait(quitStopGrace); !ok {
			c.logger.Warn("session did not stop within grace period")
		}
		if c.appCancel != nil {
			c.appCancel()
		}
		if ok := waitGroupWithTimeout(&c.bgWG, backgroundStopWait); !ok {
			c.logger.Warn("GUI background loops did not stop within timeout")
		}
		c.logger.Debug("gui cleanup complete")
	})
}

func (c *controller) quitApp() {
	c.quitOnce.Do(func() {
		c.logger.Debug("quit requested")
		c.cleanup()
		c.app.Quit()
	})
}

func (c *controller) requestQuit() {
	if c.shuttingDown {
		return
	}
	if !c.runner.IsRunning() {
		c.quitApp()
		return
	}
	if c.confirmingQuit {
		return
	}
	c.confirmingQuit = true
	dialog.ShowConfirm(
		"Quit printwatch?",
		"The file being printed is finished first. Queued files stay in their folders.",
		func(ok bool) {
			c.confirmingQuit = false
			if !ok {
				return
			}
			c.quitApp()
		},
		c.win,
	)
}
