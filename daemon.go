package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"printwatch/internal/actionlog"
	"printwatch/internal/config"
	"printwatch/internal/logging"
	"printwatch/internal/session"
)

// daemonStopGrace bounds how long shutdown waits for the file being printed.
const daemonStopGrace = 30 * time.Second

// runDaemon watches until the root context is cancelled or the session fails,
// writing each record line to stdout and diagnostics to stderr.
func runDaemon(rootCtx context.Context, buildVersion string, opts config.Options) int {
	if saved, err := config.LoadSettings(); err == nil {
		opts = config.MergeOptionsWithSettings(opts, saved)
	}
	logger := logging.New(opts.Debug)
	if logger == nil {
		panic("main.runDaemon: logging.New returned nil")
	}
	defer func() { _ = logger.Close() }()
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	logger.Info("starting printwatch daemon", logging.Field("version", buildVersion))

	resolved, err := config.Resolve(opts)
	if err != nil {
		logger.Error("failed to load configuration", logging.Field("error", err))
		return 2
	}
	cfg, err := resolved.SessionConfig(logger)
	if err != nil {
		logger.Error("failed to configure printing", logging.Field("error", err))
		return 2
	}

	exited := make(chan error, 1)
	runner := session.NewController(rootCtx)
	err = runner.Start(cfg, logger, session.StartHooks{
		OnStatus: func(status string) {
			logger.Debug("session status", logging.Field("status", status))
		},
		OnRecord: func(entry actionlog.Entry) {
			_, _ = fmt.Fprint(os.Stdout, entry.Line())
		},
		OnExit: func(runErr error) {
			exited <- runErr
		},
	})
	if err != nil {
		logger.Error("failed to start watching", logging.Field("error", err))
		return 1
	}

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown requested; finishing in-flight file")
		if !runner.StopAndWait(daemonStopGrace) {
			logger.Warn("in-flight file did not finish within grace period", logging.Field("grace", daemonStopGrace))
		}
		return 0
	case runErr := <-exited:
		if runErr != nil {
			logger.Error("watch session ended", logging.Field("error", runErr))
			return 1
		}
		return 0
	}
}
