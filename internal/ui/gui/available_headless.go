//go:build headless

package gui

import (
	"context"

	"printwatch/internal/config"
)

func Available() bool { return false }

// Run is never reached in headless builds; main checks Available first.
func Run(context.Context, string, config.Options) {}
