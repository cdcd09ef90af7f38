package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"printwatch/internal/config"
	"printwatch/internal/ui/gui"
	"printwatch/internal/ui/headless"
)

var BuildVersion = "dev"

func main() {
	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	opts, err := config.ParseOptions()
	if err != nil {
		if config.IsHelp(err) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lock, lockedByOther, lockErr := acquireInstanceLock()
	if lockErr != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize single-instance lock:", lockErr)
		os.Exit(2)
	}
	if lockedByOther {
		if !gui.Available() || opts.Headless || opts.Daemon {
			fmt.Fprintln(os.Stderr, "printwatch is already running.")
		} else {
			hideAndDetachConsoleForGUI()
			showAlreadyRunningDialog()
		}
		os.Exit(1)
	}

	code := run(rootCtx, opts)
	_ = lock.Release()
	if code != 0 {
		os.Exit(code)
	}
}

func run(rootCtx context.Context, opts config.Options) int {
	switch {
	case opts.Daemon:
		return runDaemon(rootCtx, BuildVersion, opts)
	// Headless-tag builds always run the terminal UI.
	case !gui.Available(), opts.Headless:
		headless.Run(rootCtx, BuildVersion, opts)
	default:
		hideAndDetachConsoleForGUI()
		gui.Run(rootCtx, BuildVersion, opts)
	}
	return 0
}
