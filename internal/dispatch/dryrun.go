package dispatch

import (
	"context"

	"printwatch/internal/logging"
)

// DryRun logs what would have been submitted and reports success.
type DryRun struct {
	logger *logging.Logger
}

func NewDryRun(logger *logging.Logger) *DryRun {
	return &DryRun{logger: logger}
}

func (d *DryRun) Dispatch(ctx context.Context, path, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Info("dry run: skipping print submission", logging.Field("path", path), logging.Field("target", displayTarget(target)))
	return nil
}

func displayTarget(target string) string {
	if target == "" {
		return "<default>"
	}
	return target
}
