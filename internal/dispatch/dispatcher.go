// Package dispatch submits files to an output device. Submission is
// fire-and-forget: only the error of the submission call itself is
// observable, never the outcome of the physical job.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"printwatch/internal/logging"
)

var (
	ErrEmptyCommand = errors.New("print command is empty")
	ErrNoFileToken  = errors.New("print command has no {file} placeholder")
)

// Dispatcher hands path to the output device named by target. An empty
// target selects the platform default device.
type Dispatcher interface {
	Dispatch(ctx context.Context, path, target string) error
}

type Options struct {
	// Command, when set, replaces the platform submission with a user
	// supplied program template.
	Command string
	DryRun  bool
}

// New picks the dispatcher described by opts.
func New(opts Options, logger *logging.Logger) (Dispatcher, error) {
	if logger == nil {
		panic("dispatch.New: logger must not be nil")
	}
	switch {
	case opts.DryRun:
		return NewDryRun(logger), nil
	case strings.TrimSpace(opts.Command) != "":
		return ParseCommand(opts.Command, logger)
	default:
		return NewSystem(logger), nil
	}
}

func run(ctx context.Context, logger *logging.Logger, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	logger.Debug("running print command", logging.Field("command", name), logging.Field("args", args))
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", name, ctxErr)
		}
		if detail := strings.TrimSpace(string(output)); detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, logging.Truncate(detail))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if detail := strings.TrimSpace(string(output)); detail != "" {
		logger.Debug("print command output", logging.Field("command", name), logging.Field("output", logging.Truncate(detail)))
	}
	return nil
}
