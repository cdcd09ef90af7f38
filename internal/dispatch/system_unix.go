//go:build !windows

package dispatch

import (
	"context"

	"printwatch/internal/logging"
)

// System submits through the CUPS lp client.
type System struct {
	logger *logging.Logger
	binary string
}

func NewSystem(logger *logging.Logger) *System {
	return &System{logger: logger, binary: "lp"}
}

func (s *System) Dispatch(ctx context.Context, path, target string) error {
	s.logger.Debug("submitting print job", logging.Field("path", path), logging.Field("target", displayTarget(target)))
	return run(ctx, s.logger, s.binary, lpArgs(path, target)...)
}

func lpArgs(path, target string) []string {
	if target == "" {
		return []string{"--", path}
	}
	return []string{"-d", target, "--", path}
}
