//go:build windows

package dispatch

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/windows"

	"printwatch/internal/logging"
)

// System submits through the shell "print"/"printto" verbs registered for the
// file type. The printer is passed as a verb argument, so the user's default
// printer is never changed.
type System struct {
	logger *logging.Logger
}

func NewSystem(logger *logging.Logger) *System {
	return &System{logger: logger}
}

func (s *System) Dispatch(ctx context.Context, path, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	verb := "print"
	args := ""
	if target != "" {
		verb = "printto"
		args = `"` + target + `"`
	}
	s.logger.Debug("submitting print job", logging.Field("path", path), logging.Field("verb", verb), logging.Field("target", displayTarget(target)))

	verbPtr, err := windows.UTF16PtrFromString(verb)
	if err != nil {
		return fmt.Errorf("encode verb: %w", err)
	}
	filePtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fmt.Errorf("encode path: %w", err)
	}
	dirPtr, err := windows.UTF16PtrFromString(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("encode directory: %w", err)
	}
	var argsPtr *uint16
	if args != "" {
		argsPtr, err = windows.UTF16PtrFromString(args)
		if err != nil {
			return fmt.Errorf("encode printer name: %w", err)
		}
	}
	// ShellExecute returns once the verb's handler has launched, not when it
	// has read the file. The pipeline moves the file right after, so slow
	// handlers need pipeline.Options.RelocateDelay (--print-hold).
	if err := windows.ShellExecute(0, verbPtr, filePtr, argsPtr, dirPtr, windows.SW_HIDE); err != nil {
		return fmt.Errorf("shell %s %s: %w", verb, path, err)
	}
	return nil
}
